// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "errors"

// Sentinels wrapped by the pkg/errors types so callers can tell a missing
// list from a missing member.
var (
	ErrListNotFound   = errors.New("list not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrNotSynced      = errors.New("member has no provider identifier")
)
