// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import "context"

// ProviderClient is the transport to the remote mailing-list provider.
// Paths are relative to the provider API root, e.g. /lists/{id}/members.
// Any transport or non-2xx failure is returned as an error whose message is
// the provider's text.
type ProviderClient interface {
	Post(ctx context.Context, path string, body map[string]any) (map[string]any, error)
	Patch(ctx context.Context, path string, body map[string]any) (map[string]any, error)
	Delete(ctx context.Context, path string, body map[string]any) (map[string]any, error)

	IsReady(ctx context.Context) error
}
