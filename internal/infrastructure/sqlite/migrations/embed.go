// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package migrations embeds the SQLite schema of the member store.
package migrations

import "embed"

// FS contains the embedded SQLite migrations.
//
//go:embed *.sql
var FS embed.FS
