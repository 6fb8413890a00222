// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Coordinate is a latitude or longitude kept as submitted: either a JSON
// number or a numeric string.
type Coordinate struct {
	text   string
	quoted bool
}

// NewCoordinate builds a Coordinate from a decoded JSON value
func NewCoordinate(v any) (*Coordinate, error) {
	switch val := v.(type) {
	case float64:
		return &Coordinate{text: strconv.FormatFloat(val, 'f', -1, 64)}, nil
	case json.Number:
		return &Coordinate{text: val.String()}, nil
	case int:
		return &Coordinate{text: strconv.Itoa(val)}, nil
	case string:
		return &Coordinate{text: val, quoted: true}, nil
	default:
		return nil, fmt.Errorf("unsupported coordinate type %T", v)
	}
}

// Float64 returns the numeric value
func (c Coordinate) Float64() (float64, error) {
	return strconv.ParseFloat(c.text, 64)
}

// String returns the coordinate text
func (c Coordinate) String() string {
	return c.text
}

// WireValue returns the coordinate in the shape it was submitted in
func (c Coordinate) WireValue() any {
	if c.quoted {
		return c.text
	}
	if f, err := c.Float64(); err == nil {
		return f
	}
	return c.text
}

// MarshalJSON implements json.Marshaler
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if c.quoted {
		return json.Marshal(c.text)
	}
	if _, err := c.Float64(); err != nil {
		return json.Marshal(c.text)
	}
	return []byte(c.text), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate{text: s, quoted: true}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Coordinate{text: n.String()}
	return nil
}
