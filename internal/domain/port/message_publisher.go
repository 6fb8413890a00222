// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import "context"

// MessagePublisher publishes member change events for downstream services
type MessagePublisher interface {
	// Indexer publishes indexer messages consumed by the search indexer
	Indexer(ctx context.Context, subject string, message any) error

	// Access publishes access control messages consumed by the permission sync service
	Access(ctx context.Context, subject string, message any) error
}
