// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
)

// Wire keys of the provider member representation
const (
	WireEmailAddress         = "email_address"
	WireEmailType            = "email_type"
	WireStatus               = "status"
	WireMergeFields          = "merge_fields"
	WireInterests            = "interests"
	WireLanguage             = "language"
	WireVIP                  = "vip"
	WireLocation             = "location"
	WireMarketingPermissions = "marketing_permissions"
	WireIPSignup             = "ip_signup"
	WireTimestampSignup      = "timestamp_signup"
	WireIPOpt                = "ip_opt"
	WireTimestampOpt         = "timestamp_opt"
	WireTags                 = "tags"

	WireLatitude            = "latitude"
	WireLongitude           = "longitude"
	WireMarketingPermission = "marketing_permission_id"
	WireEnabled             = "enabled"
)

// wireField maps one member attribute onto its wire key
type wireField struct {
	key string

	// structural fields are omitted when they hold an empty object
	structural bool

	get func(m *Member) any
	set func(m *Member, v any) error
}

// memberWireFields is the complete, ordered wire table of a member.
// Local identity (id, list_id, mail_chimp_id) is deliberately absent.
var memberWireFields = []wireField{
	{
		key: WireEmailAddress,
		get: func(m *Member) any { return nonEmpty(m.EmailAddress) },
		set: func(m *Member, v any) error { return assignString(&m.EmailAddress, v) },
	},
	{
		key: WireEmailType,
		get: func(m *Member) any { return optional(m.EmailType) },
		set: func(m *Member, v any) error { return assignOptional(&m.EmailType, v) },
	},
	{
		key: WireStatus,
		get: func(m *Member) any { return nonEmpty(string(m.Status)) },
		set: func(m *Member, v any) error {
			var s string
			if err := assignString(&s, v); err != nil {
				return err
			}
			m.Status = Status(s)
			return nil
		},
	},
	{
		key:        WireMergeFields,
		structural: true,
		get: func(m *Member) any {
			if m.MergeFields == nil {
				return nil
			}
			return deepCopyMap(m.MergeFields)
		},
		set: func(m *Member, v any) error {
			obj, ok := v.(map[string]any)
			if !ok {
				return typeError(WireMergeFields, "object", v)
			}
			m.MergeFields = deepCopyMap(obj)
			return nil
		},
	},
	{
		key:        WireInterests,
		structural: true,
		get: func(m *Member) any {
			if m.Interests == nil {
				return nil
			}
			out := make(map[string]any, len(m.Interests))
			for k, enabled := range m.Interests {
				out[k] = enabled
			}
			return out
		},
		set: setInterests,
	},
	{
		key: WireLanguage,
		get: func(m *Member) any { return optional(m.Language) },
		set: func(m *Member, v any) error { return assignOptional(&m.Language, v) },
	},
	{
		key: WireVIP,
		get: func(m *Member) any {
			if m.VIP == nil {
				return nil
			}
			return *m.VIP
		},
		set: func(m *Member, v any) error {
			b, ok := v.(bool)
			if !ok {
				return typeError(WireVIP, "boolean", v)
			}
			m.VIP = &b
			return nil
		},
	},
	{
		key:        WireLocation,
		structural: true,
		get:        getLocation,
		set:        setLocation,
	},
	{
		key: WireMarketingPermissions,
		get: getMarketingPermissions,
		set: setMarketingPermissions,
	},
	{
		key: WireIPSignup,
		get: func(m *Member) any { return optional(m.IPSignup) },
		set: func(m *Member, v any) error { return assignOptional(&m.IPSignup, v) },
	},
	{
		key: WireTimestampSignup,
		get: func(m *Member) any { return optional(m.TimestampSignup) },
		set: func(m *Member, v any) error { return assignOptional(&m.TimestampSignup, v) },
	},
	{
		key: WireIPOpt,
		get: func(m *Member) any { return optional(m.IPOpt) },
		set: func(m *Member, v any) error { return assignOptional(&m.IPOpt, v) },
	},
	{
		key: WireTimestampOpt,
		get: func(m *Member) any { return optional(m.TimestampOpt) },
		set: func(m *Member, v any) error { return assignOptional(&m.TimestampOpt, v) },
	},
	{
		key: WireTags,
		get: func(m *Member) any {
			if m.Tags == nil {
				return nil
			}
			out := make([]any, len(m.Tags))
			for i, tag := range m.Tags {
				out[i] = tag
			}
			return out
		},
		set: setTags,
	},
}

var wireFieldIndex = func() map[string]wireField {
	idx := make(map[string]wireField, len(memberWireFields))
	for _, f := range memberWireFields {
		idx[f.key] = f
	}
	return idx
}()

// WireFieldNames lists the wire keys in table order
func WireFieldNames() []string {
	names := make([]string, len(memberWireFields))
	for i, f := range memberWireFields {
		names[i] = f.key
	}
	return names
}

// ToWire renders m in the provider representation with the omission rules
// applied: nulls are dropped, and so are empty merge fields, interests and
// location.
func ToWire(m *Member) map[string]any {
	out := make(map[string]any, len(memberWireFields))
	if m == nil {
		return out
	}
	for _, f := range memberWireFields {
		if v := f.get(m); v != nil {
			out[f.key] = v
		}
	}
	return OmitEmpty(out)
}

// FromWire builds a member from a wire map. Keys outside the wire table are
// ignored; local identity is left for the caller to set.
func FromWire(wire map[string]any) (*Member, error) {
	m := &Member{}
	for _, f := range memberWireFields {
		v, ok := wire[f.key]
		if !ok || v == nil {
			continue
		}
		if err := f.set(m, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SelectWireFields keeps the wire table keys of a decoded payload,
// including explicit nulls, and deep copies their values.
func SelectWireFields(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, ok := wireFieldIndex[k]; ok {
			out[k] = deepCopy(v)
		}
	}
	return out
}

// OmitEmpty drops nulls and empty structural fields from a wire map
func OmitEmpty(wire map[string]any) map[string]any {
	out := make(map[string]any, len(wire))
	for k, v := range wire {
		if v == nil {
			continue
		}
		if f, ok := wireFieldIndex[k]; ok && f.structural && isEmptyStructure(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// ShapeWire turns a decoded payload into its wire representation
func ShapeWire(raw map[string]any) map[string]any {
	return OmitEmpty(SelectWireFields(raw))
}

// MergeWire overlays patch on base. Objects merge key by key, arrays and
// scalars replace, and a null removes the key. Neither input is modified.
func MergeWire(base, patch map[string]any) map[string]any {
	out := deepCopyMap(base)
	for k, pv := range patch {
		if pv == nil {
			delete(out, k)
			continue
		}
		patchObj, patchIsObj := pv.(map[string]any)
		baseObj, baseIsObj := out[k].(map[string]any)
		if patchIsObj && baseIsObj {
			out[k] = MergeWire(baseObj, patchObj)
			continue
		}
		out[k] = deepCopy(pv)
	}
	return out
}

func getLocation(m *Member) any {
	if m.Location == nil {
		return nil
	}
	out := make(map[string]any, 2)
	if m.Location.Latitude != nil {
		out[WireLatitude] = m.Location.Latitude.WireValue()
	}
	if m.Location.Longitude != nil {
		out[WireLongitude] = m.Location.Longitude.WireValue()
	}
	return out
}

func setLocation(m *Member, v any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return typeError(WireLocation, "object", v)
	}
	loc := &Location{}
	for key, dst := range map[string]**Coordinate{WireLatitude: &loc.Latitude, WireLongitude: &loc.Longitude} {
		raw, present := obj[key]
		if !present || raw == nil {
			continue
		}
		c, err := NewCoordinate(raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", WireLocation, key, err)
		}
		*dst = c
	}
	m.Location = loc
	return nil
}

func setInterests(m *Member, v any) error {
	switch obj := v.(type) {
	case map[string]bool:
		m.Interests = make(map[string]bool, len(obj))
		for k, enabled := range obj {
			m.Interests[k] = enabled
		}
	case map[string]any:
		m.Interests = make(map[string]bool, len(obj))
		for k, raw := range obj {
			enabled, ok := raw.(bool)
			if !ok {
				return typeError(WireInterests+"."+k, "boolean", raw)
			}
			m.Interests[k] = enabled
		}
	case []any:
		// an empty JSON array is how some clients spell an empty object
		if len(obj) != 0 {
			return typeError(WireInterests, "object", v)
		}
		m.Interests = map[string]bool{}
	default:
		return typeError(WireInterests, "object", v)
	}
	return nil
}

func getMarketingPermissions(m *Member) any {
	if m.MarketingPermissions == nil {
		return nil
	}
	out := make([]any, len(m.MarketingPermissions))
	for i, p := range m.MarketingPermissions {
		entry := map[string]any{WireMarketingPermission: p.ID}
		if p.Enabled != nil {
			entry[WireEnabled] = *p.Enabled
		}
		out[i] = entry
	}
	return out
}

func setMarketingPermissions(m *Member, v any) error {
	list, ok := v.([]any)
	if !ok {
		return typeError(WireMarketingPermissions, "array", v)
	}
	perms := make([]MarketingPermission, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("%s.%d", WireMarketingPermissions, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return typeError(path, "object", item)
		}
		var p MarketingPermission
		if err := assignString(&p.ID, obj[WireMarketingPermission]); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if raw, present := obj[WireEnabled]; present && raw != nil {
			enabled, ok := raw.(bool)
			if !ok {
				return typeError(path+"."+WireEnabled, "boolean", raw)
			}
			p.Enabled = &enabled
		}
		perms = append(perms, p)
	}
	m.MarketingPermissions = perms
	return nil
}

func setTags(m *Member, v any) error {
	switch list := v.(type) {
	case []string:
		m.Tags = append([]string{}, list...)
	case []any:
		tags := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return typeError(fmt.Sprintf("%s.%d", WireTags, i), "string", item)
			}
			tags = append(tags, s)
		}
		m.Tags = tags
	default:
		return typeError(WireTags, "array", v)
	}
	return nil
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func assignString(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return typeError("value", "string", v)
	}
	*dst = s
	return nil
}

func assignOptional(dst **string, v any) error {
	var s string
	if err := assignString(&s, v); err != nil {
		return err
	}
	*dst = &s
	return nil
}

func typeError(path, want string, got any) error {
	return fmt.Errorf("%s: expected %s, got %T", path, want, got)
}

func isEmptyStructure(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		return len(val) == 0
	case map[string]bool:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopy(v)
	}
	return out
}
