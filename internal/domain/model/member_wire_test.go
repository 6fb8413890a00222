// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullPayload is a create payload as decoded from a JSON request body
func fullPayload(t *testing.T) map[string]any {
	t.Helper()
	raw := `{
		"email_address": "abc123@test.com",
		"email_type": "html",
		"status": "subscribed",
		"merge_fields": {
			"FNAME": "First Name",
			"LNAME": "Last Name",
			"ADDRESS": {"addr1": "Street name", "addr2": "", "city": "City", "state": "State", "zip": "ZIP", "country": "US"},
			"PHONE": "88005553535",
			"BIRTHDAY": "12/12"
		},
		"interests": {"9143cf3bd1": true, "3a2a927344": false},
		"language": "ru",
		"vip": false,
		"location": {"latitude": "-21.8052", "longitude": -49.0898},
		"marketing_permissions": [{"marketing_permission_id": "id123", "enabled": true}, {"marketing_permission_id": "id456"}],
		"ip_signup": "49.57.48.99",
		"timestamp_signup": "2020-07-14T18:08:13+00:00",
		"ip_opt": "49.114.199.119",
		"timestamp_opt": "2020-07-14T17:53:54+00:00",
		"tags": ["test tag 1", "test tag 2"]
	}`
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestWireRoundTrip(t *testing.T) {
	wire := ShapeWire(fullPayload(t))

	member, err := FromWire(wire)
	require.NoError(t, err)

	assert.Equal(t, "abc123@test.com", member.EmailAddress)
	assert.Equal(t, StatusSubscribed, member.Status)
	require.NotNil(t, member.EmailType)
	assert.Equal(t, EmailTypeHTML, *member.EmailType)
	assert.Equal(t, map[string]bool{"9143cf3bd1": true, "3a2a927344": false}, member.Interests)
	require.NotNil(t, member.Location)
	assert.Equal(t, "-21.8052", member.Location.Latitude.String())
	require.Len(t, member.MarketingPermissions, 2)
	assert.Nil(t, member.MarketingPermissions[1].Enabled)
	assert.Equal(t, []string{"test tag 1", "test tag 2"}, member.Tags)

	assert.Equal(t, wire, ToWire(member))
}

func TestWireRoundTripThroughJSON(t *testing.T) {
	wire := ShapeWire(fullPayload(t))
	member, err := FromWire(wire)
	require.NoError(t, err)

	data, err := json.Marshal(member)
	require.NoError(t, err)

	var stored Member
	require.NoError(t, json.Unmarshal(data, &stored))

	assert.Equal(t, wire, ToWire(&stored))
}

func TestToWireOmitsLocalIdentity(t *testing.T) {
	remote := "62eeb292278cc15f5817cb78f7790b08"
	wire := ToWire(&Member{
		UID:          "local-1",
		ListUID:      "list-1",
		RemoteID:     &remote,
		EmailAddress: "abc123@test.com",
		Status:       StatusPending,
	})

	assert.Equal(t, map[string]any{"email_address": "abc123@test.com", "status": "pending"}, wire)
}

func TestToWireOmissionRules(t *testing.T) {
	testCases := []struct {
		name    string
		member  *Member
		present []string
		absent  []string
	}{
		{
			name: "empty structural fields are omitted",
			member: &Member{
				EmailAddress: "a@b.io",
				Status:       StatusSubscribed,
				MergeFields:  map[string]any{},
				Interests:    map[string]bool{},
				Location:     &Location{},
			},
			present: []string{WireEmailAddress, WireStatus},
			absent:  []string{WireMergeFields, WireInterests, WireLocation},
		},
		{
			name: "populated structural fields are kept",
			member: &Member{
				EmailAddress: "a@b.io",
				Status:       StatusSubscribed,
				MergeFields:  map[string]any{"FNAME": "Jane"},
				Interests:    map[string]bool{"abc": true},
				Location:     &Location{Latitude: &Coordinate{text: "1.5"}},
			},
			present: []string{WireMergeFields, WireInterests, WireLocation},
		},
		{
			name: "empty arrays are not structural",
			member: &Member{
				EmailAddress:         "a@b.io",
				Status:               StatusSubscribed,
				Tags:                 []string{},
				MarketingPermissions: []MarketingPermission{},
			},
			present: []string{WireTags, WireMarketingPermissions},
		},
		{
			name:   "nil optionals are omitted",
			member: &Member{EmailAddress: "a@b.io", Status: StatusSubscribed},
			absent: []string{WireEmailType, WireLanguage, WireVIP, WireIPSignup, WireTimestampSignup, WireIPOpt, WireTimestampOpt, WireTags},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wire := ToWire(tc.member)
			for _, key := range tc.present {
				assert.Contains(t, wire, key)
			}
			for _, key := range tc.absent {
				assert.NotContains(t, wire, key)
			}
		})
	}
}

func TestShapeWire(t *testing.T) {
	wire := ShapeWire(map[string]any{
		"id":            "client-chosen",
		"list_id":       "other-list",
		"mail_chimp_id": "forged",
		"unknown":       1,
		"email_address": "a@b.io",
		"email_type":    nil,
		"interests":     []any{},
		"merge_fields":  map[string]any{},
		"location":      map[string]any{},
		"tags":          []any{"x"},
	})

	assert.Equal(t, map[string]any{"email_address": "a@b.io", "tags": []any{"x"}}, wire)
}

func TestMergeWire(t *testing.T) {
	base := map[string]any{
		"email_address": "abc123@test.com",
		"status":        "subscribed",
		"merge_fields": map[string]any{
			"FNAME":   "First Name",
			"ADDRESS": map[string]any{"addr1": "Street name", "city": "City"},
		},
		"tags":     []any{"a", "b"},
		"language": "ru",
	}

	t.Run("nested objects merge key by key", func(t *testing.T) {
		merged := MergeWire(base, map[string]any{
			"merge_fields": map[string]any{"ADDRESS": map[string]any{"addr1": "New St"}},
		})

		assert.Equal(t, map[string]any{
			"email_address": "abc123@test.com",
			"status":        "subscribed",
			"merge_fields": map[string]any{
				"FNAME":   "First Name",
				"ADDRESS": map[string]any{"addr1": "New St", "city": "City"},
			},
			"tags":     []any{"a", "b"},
			"language": "ru",
		}, merged)
	})

	t.Run("arrays replace and null clears", func(t *testing.T) {
		merged := MergeWire(base, map[string]any{"tags": []any{"c"}, "language": nil})

		assert.Equal(t, []any{"c"}, merged["tags"])
		assert.NotContains(t, merged, "language")
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		patch := map[string]any{"merge_fields": map[string]any{"FNAME": "Changed"}}
		merged := MergeWire(base, patch)
		merged["merge_fields"].(map[string]any)["LNAME"] = "Added"

		assert.Equal(t, "First Name", base["merge_fields"].(map[string]any)["FNAME"])
		assert.NotContains(t, base["merge_fields"].(map[string]any), "LNAME")
		assert.NotContains(t, patch["merge_fields"].(map[string]any), "LNAME")
	})
}

func TestFromWireTypeErrors(t *testing.T) {
	testCases := []struct {
		name string
		wire map[string]any
	}{
		{"status not a string", map[string]any{"status": 1.0}},
		{"vip not a bool", map[string]any{"vip": "yes"}},
		{"tags element not a string", map[string]any{"tags": []any{"ok", 2.0}}},
		{"permission without id", map[string]any{"marketing_permissions": []any{map[string]any{"enabled": true}}}},
		{"interest not a bool", map[string]any{"interests": map[string]any{"abc": "yes"}}},
		{"location not an object", map[string]any{"location": "here"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromWire(tc.wire)
			assert.Error(t, err)
		})
	}
}

func TestWireFieldNames(t *testing.T) {
	names := WireFieldNames()

	assert.Len(t, names, 14)
	assert.Equal(t, WireEmailAddress, names[0])
	assert.NotContains(t, names, "id")
	assert.NotContains(t, names, "list_id")
	assert.NotContains(t, names, "mail_chimp_id")
}
