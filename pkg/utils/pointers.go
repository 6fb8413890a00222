// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value behind p, or the zero value when p is nil
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// StringValue returns *s or "" for nil.
func StringValue(s *string) string {
	return Deref(s)
}
