// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package model defines the domain models and entities for the mailchimp sync service.
package model

import (
	"time"
)

// Status is the subscription status of a list member
type Status string

// Member statuses. StatusArchived is only reachable through a soft remove.
const (
	StatusSubscribed    Status = "subscribed"
	StatusUnsubscribed  Status = "unsubscribed"
	StatusCleaned       Status = "cleaned"
	StatusPending       Status = "pending"
	StatusTransactional Status = "transactional"
	StatusArchived      Status = "archived"
)

// SettableStatuses are the statuses a client may submit
var SettableStatuses = []Status{
	StatusSubscribed,
	StatusUnsubscribed,
	StatusCleaned,
	StatusPending,
	StatusTransactional,
}

// IsSettable reports whether s may be submitted in a create or update payload
func (s Status) IsSettable() bool {
	for _, v := range SettableStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Email types
const (
	EmailTypeHTML = "html"
	EmailTypeText = "text"
)

// Member is a subscriber of exactly one List, mirrored to the provider
type Member struct {
	// Local identity, never sent to the provider
	UID      string  `json:"id"`
	ListUID  string  `json:"list_id"`
	RemoteID *string `json:"mail_chimp_id"` // nil until the first successful remote create

	EmailAddress         string                `json:"email_address"`
	EmailType            *string               `json:"email_type"`
	Status               Status                `json:"status"`
	MergeFields          map[string]any        `json:"merge_fields"`
	Interests            map[string]bool       `json:"interests"`
	Language             *string               `json:"language"`
	VIP                  *bool                 `json:"vip"`
	Location             *Location             `json:"location"`
	MarketingPermissions []MarketingPermission `json:"marketing_permissions"`
	IPSignup             *string               `json:"ip_signup"`
	TimestampSignup      *string               `json:"timestamp_signup"`
	IPOpt                *string               `json:"ip_opt"`
	TimestampOpt         *string               `json:"timestamp_opt"`
	Tags                 []string              `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is the geolocation of a member
type Location struct {
	Latitude  *Coordinate `json:"latitude,omitempty"`
	Longitude *Coordinate `json:"longitude,omitempty"`
}

// MarketingPermission is a GDPR marketing permission entry
type MarketingPermission struct {
	ID      string `json:"marketing_permission_id"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IsArchived reports whether the member was soft removed
func (m *Member) IsArchived() bool {
	return m != nil && m.Status == StatusArchived
}

// IsSynced reports whether the provider has acknowledged the member
func (m *Member) IsSynced() bool {
	return m != nil && m.RemoteID != nil && *m.RemoteID != ""
}

// IndexTags generates the search tags of the member for the indexer.
// These are distinct from the member's own provider tags.
func (m *Member) IndexTags() []string {
	if m == nil {
		return nil
	}

	tags := []string{
		m.UID,
		"member_uid:" + m.UID,
		"list_uid:" + m.ListUID,
		"status:" + string(m.Status),
	}
	if m.IsSynced() {
		tags = append(tags, "mail_chimp_id:"+*m.RemoteID)
	}
	return tags
}

// Clone returns a deep copy of m
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	if m.RemoteID != nil {
		id := *m.RemoteID
		c.RemoteID = &id
	}
	c.EmailType = cloneString(m.EmailType)
	c.Language = cloneString(m.Language)
	c.IPSignup = cloneString(m.IPSignup)
	c.TimestampSignup = cloneString(m.TimestampSignup)
	c.IPOpt = cloneString(m.IPOpt)
	c.TimestampOpt = cloneString(m.TimestampOpt)
	if m.VIP != nil {
		vip := *m.VIP
		c.VIP = &vip
	}
	c.MergeFields = deepCopyMap(m.MergeFields)
	if m.Interests != nil {
		c.Interests = make(map[string]bool, len(m.Interests))
		for k, v := range m.Interests {
			c.Interests[k] = v
		}
	}
	if m.Location != nil {
		loc := *m.Location
		c.Location = &loc
	}
	if m.MarketingPermissions != nil {
		c.MarketingPermissions = make([]MarketingPermission, len(m.MarketingPermissions))
		for i, p := range m.MarketingPermissions {
			c.MarketingPermissions[i] = MarketingPermission{ID: p.ID}
			if p.Enabled != nil {
				enabled := *p.Enabled
				c.MarketingPermissions[i].Enabled = &enabled
			}
		}
	}
	if m.Tags != nil {
		c.Tags = append([]string{}, m.Tags...)
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
