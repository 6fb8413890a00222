// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package utils provides utility functions for the mailchimp sync service.
package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

// ParseDate parses a date or timestamp in any of the accepted layouts.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New(constants.ErrEmptyTimestamp)
	}

	for _, layout := range constants.AcceptedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%s: %q", constants.ErrInvalidTimestampFormat, value)
}

// IsDate reports whether value parses as a date
func IsDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// FormatTimestamp renders t in the system timestamp format (UTC)
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// FormatTimePtr formats a time.Time pointer as a timestamp string pointer.
// Returns nil if the input is nil.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}

	formatted := FormatTimestamp(*t)
	return &formatted
}
