// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// List is the local mirror of a provider audience. Lists are owned elsewhere;
// this service only reads them to address member calls.
type List struct {
	UID      string `json:"id"`
	RemoteID string `json:"mail_chimp_id"`
	Name     string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MembersPath is the provider collection path for the members of l
func (l *List) MembersPath() string {
	return "/lists/" + l.RemoteID + "/members"
}

// MemberPath is the provider path of a single member of l
func (l *List) MemberPath(remoteID string) string {
	return l.MembersPath() + "/" + remoteID
}
