// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/utils"
)

var (
	birthdayPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	languagePattern = regexp.MustCompile(`^(\w{2}|\w{2}_\w{2})$`)
	// finite decimal notation only, no NaN, Inf or hex floats
	numericPattern  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

var (
	mergeFieldStrings = []string{"FNAME", "LNAME", "PHONE"}
	addressFields     = []string{"addr1", "addr2", "city", "state", "zip", "country"}
)

// Violations maps a field path to the rules it breaks
type Violations map[string][]string

func (v Violations) add(path, format string, args ...any) {
	v[path] = append(v[path], fmt.Sprintf(format, args...))
}

// Paths returns the violated field paths in sorted order
func (v Violations) Paths() []string {
	paths := make([]string, 0, len(v))
	for p := range v {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FieldValidator checks a wire-shaped member against the provider field
// rules. It never mutates its input.
type FieldValidator struct{}

// NewFieldValidator creates a FieldValidator
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// Validate returns nil when wire is valid
func (f *FieldValidator) Validate(wire map[string]any) Violations {
	v := Violations{}

	f.email(v, wire)
	f.oneOf(v, wire, model.WireEmailType, false, model.EmailTypeHTML, model.EmailTypeText)

	statuses := make([]string, len(model.SettableStatuses))
	for i, s := range model.SettableStatuses {
		statuses[i] = string(s)
	}
	f.oneOf(v, wire, model.WireStatus, true, statuses...)

	f.mergeFields(v, wire[model.WireMergeFields])
	f.interests(v, wire[model.WireInterests])
	f.pattern(v, model.WireLanguage, wire[model.WireLanguage], languagePattern)
	f.boolean(v, model.WireVIP, wire[model.WireVIP])
	f.location(v, wire[model.WireLocation])
	f.marketingPermissions(v, wire[model.WireMarketingPermissions])
	f.ip(v, model.WireIPSignup, wire[model.WireIPSignup])
	f.date(v, model.WireTimestampSignup, wire[model.WireTimestampSignup])
	f.ip(v, model.WireIPOpt, wire[model.WireIPOpt])
	f.date(v, model.WireTimestampOpt, wire[model.WireTimestampOpt])
	f.tags(v, wire[model.WireTags])

	if len(v) == 0 {
		return nil
	}
	return v
}

func (f *FieldValidator) email(v Violations, wire map[string]any) {
	raw, ok := wire[model.WireEmailAddress]
	if !ok || isBlank(raw) {
		v.add(model.WireEmailAddress, "The %s field is required.", model.WireEmailAddress)
		return
	}
	s, ok := raw.(string)
	if !ok {
		v.add(model.WireEmailAddress, "The %s must be a string.", model.WireEmailAddress)
		return
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		v.add(model.WireEmailAddress, "The %s must be a valid email address.", model.WireEmailAddress)
	}
}

func (f *FieldValidator) oneOf(v Violations, wire map[string]any, path string, required bool, allowed ...string) {
	raw, ok := wire[path]
	if !ok || raw == nil {
		if required {
			v.add(path, "The %s field is required.", path)
		}
		return
	}
	if required && isBlank(raw) {
		v.add(path, "The %s field is required.", path)
		return
	}
	s, ok := raw.(string)
	if !ok {
		v.add(path, "The %s must be a string.", path)
		return
	}
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	v.add(path, "The selected %s is invalid.", path)
}

func (f *FieldValidator) mergeFields(v Violations, raw any) {
	if raw == nil {
		return
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(model.WireMergeFields, "The %s must be an object.", model.WireMergeFields)
		return
	}

	for _, key := range mergeFieldStrings {
		f.str(v, model.WireMergeFields+"."+key, obj[key])
	}
	f.pattern(v, model.WireMergeFields+".BIRTHDAY", obj["BIRTHDAY"], birthdayPattern)

	address, present := obj["ADDRESS"]
	if !present || address == nil {
		return
	}
	addressPath := model.WireMergeFields + ".ADDRESS"
	addressObj, ok := address.(map[string]any)
	if !ok {
		v.add(addressPath, "The %s must be an object.", addressPath)
		return
	}
	for _, key := range addressFields {
		f.str(v, addressPath+"."+key, addressObj[key])
	}
}

func (f *FieldValidator) interests(v Violations, raw any) {
	switch obj := raw.(type) {
	case nil:
	case map[string]any:
		for key, val := range obj {
			f.boolean(v, model.WireInterests+"."+key, val)
		}
	case []any:
		if len(obj) != 0 {
			v.add(model.WireInterests, "The %s must be an object.", model.WireInterests)
		}
	default:
		v.add(model.WireInterests, "The %s must be an object.", model.WireInterests)
	}
}

func (f *FieldValidator) location(v Violations, raw any) {
	if raw == nil {
		return
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		v.add(model.WireLocation, "The %s must be an object.", model.WireLocation)
		return
	}
	for _, key := range []string{model.WireLatitude, model.WireLongitude} {
		path := model.WireLocation + "." + key
		if val := obj[key]; val != nil && !isNumeric(val) {
			v.add(path, "The %s must be a number.", path)
		}
	}
}

func (f *FieldValidator) marketingPermissions(v Violations, raw any) {
	if raw == nil {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		v.add(model.WireMarketingPermissions, "The %s must be an array.", model.WireMarketingPermissions)
		return
	}
	for i, item := range list {
		path := fmt.Sprintf("%s.%d", model.WireMarketingPermissions, i)
		obj, ok := item.(map[string]any)
		if !ok {
			v.add(path, "The %s must be an object.", path)
			continue
		}

		idPath := path + "." + model.WireMarketingPermission
		id := obj[model.WireMarketingPermission]
		switch {
		case isBlank(id):
			v.add(idPath, "The %s field is required.", idPath)
		default:
			if _, ok := id.(string); !ok {
				v.add(idPath, "The %s must be a string.", idPath)
			}
		}
		f.boolean(v, path+"."+model.WireEnabled, obj[model.WireEnabled])
	}
}

func (f *FieldValidator) tags(v Violations, raw any) {
	if raw == nil {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		v.add(model.WireTags, "The %s must be an array.", model.WireTags)
		return
	}
	for i, item := range list {
		path := fmt.Sprintf("%s.%d", model.WireTags, i)
		s, ok := item.(string)
		if !ok {
			v.add(path, "The %s must be a string.", path)
			continue
		}
		if strings.TrimSpace(s) == "" {
			v.add(path, "The %s field must have a value.", path)
		}
	}
}

func (f *FieldValidator) str(v Violations, path string, raw any) {
	if raw == nil {
		return
	}
	if _, ok := raw.(string); !ok {
		v.add(path, "The %s must be a string.", path)
	}
}

func (f *FieldValidator) pattern(v Violations, path string, raw any, re *regexp.Regexp) {
	if raw == nil {
		return
	}
	s, ok := raw.(string)
	if !ok {
		v.add(path, "The %s must be a string.", path)
		return
	}
	if !re.MatchString(s) {
		v.add(path, "The %s format is invalid.", path)
	}
}

func (f *FieldValidator) boolean(v Violations, path string, raw any) {
	if raw == nil {
		return
	}
	if _, ok := raw.(bool); !ok {
		v.add(path, "The %s field must be true or false.", path)
	}
}

func (f *FieldValidator) ip(v Violations, path string, raw any) {
	if raw == nil {
		return
	}
	s, ok := raw.(string)
	if !ok || net.ParseIP(s) == nil {
		v.add(path, "The %s must be a valid IP address.", path)
	}
}

func (f *FieldValidator) date(v Violations, path string, raw any) {
	if raw == nil {
		return
	}
	s, ok := raw.(string)
	if !ok || !utils.IsDate(s) {
		v.add(path, "The %s is not a valid date.", path)
	}
}

func isBlank(raw any) bool {
	switch val := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}

func isNumeric(raw any) bool {
	switch val := raw.(type) {
	case float64:
		return !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32, int, int64:
		return true
	case json.Number:
		return numericPattern.MatchString(val.String())
	case string:
		return numericPattern.MatchString(strings.TrimSpace(val))
	default:
		return false
	}
}
