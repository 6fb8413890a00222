// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package redaction masks personal data before it reaches the logs.
package redaction

import "strings"

// RedactEmail keeps the first character of the local part and the domain:
// jane.doe@example.com becomes j***@example.com.
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return Redact(email)
	}

	return email[:1] + "***" + email[at:]
}

// Redact masks everything but the first and last character
func Redact(value string) string {
	r := []rune(value)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 2:
		return strings.Repeat("*", len(r))
	default:
		return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
	}
}
