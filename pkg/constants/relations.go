// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Relations used in access control messages
const (
	// RelationList ties a member to the list it belongs to
	RelationList = "mailchimp_list"
)
