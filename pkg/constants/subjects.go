// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// NATS subject constants for message publishing
const (
	// IndexMemberSubject feeds the search indexer
	IndexMemberSubject = "lfx.index.mailchimp_member"

	// Access control subjects
	UpdateAccessMemberSubject    = "lfx.update_access.mailchimp_member"
	DeleteAllAccessMemberSubject = "lfx.delete_all_access.mailchimp_member"
)
