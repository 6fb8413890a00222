// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines validation constants and formats for the mailchimp sync service.
package constants

import "time"

const (
	// TimestampFormat defines the standard timestamp format for the system (RFC3339)
	TimestampFormat = "2006-01-02T15:04:05Z07:00"
)

// AcceptedDateLayouts are tried in order when parsing signup and opt-in timestamps
var AcceptedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

// Validation error messages
const (
	ErrInvalidTimestampFormat = "invalid timestamp format"
	ErrEmptyTimestamp         = "timestamp cannot be empty"
)
