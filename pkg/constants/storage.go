// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (
	// KVBucketNameLists is the name of the KV bucket for mailchimp lists.
	KVBucketNameLists = "mailchimp-lists"

	// KVBucketNameMembers is the name of the KV bucket for list members.
	KVBucketNameMembers = "mailchimp-list-members"

	// KVLookupListMemberPrefix indexes members by list: lookup/list_members/<list>/<member>
	KVLookupListMemberPrefix = "lookup/list_members/%s/"
)
