// Package yesno implements the tri-state answer used by examination forms.
//
// On the wire (HTML forms, exported sheets, rendered documents) an answer is
// the string "Yes" or "No"; anything else, including the empty string, is
// Unknown. In storage an answer is a nullable BOOLEAN where NULL is Unknown.
package yesno

import (
	"encoding/json"
	"strings"
)

// Value is a Yes/No/Unknown answer. The zero value is Unknown.
type Value uint8

const (
	Unknown Value = iota
	Yes
	No
)

// Parse converts a wire string into a Value. Matching is case-insensitive
// and ignores surrounding whitespace; "Y"/"N" and "true"/"false" are accepted
// because older form revisions posted them.
func Parse(s string) Value {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return Yes
	case "no", "n", "false":
		return No
	default:
		return Unknown
	}
}

// String returns the wire form: "Yes", "No" or "".
func (v Value) String() string {
	switch v {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return ""
	}
}

// Display returns the wire form, or placeholder when the answer is Unknown.
func (v Value) Display(placeholder string) string {
	if v == Unknown {
		return placeholder
	}
	return v.String()
}

func (v Value) IsYes() bool { return v == Yes }

// FromBool converts a nullable column value.
func FromBool(b *bool) Value {
	if b == nil {
		return Unknown
	}
	if *b {
		return Yes
	}
	return No
}

// Bool converts to a nullable column value.
func (v Value) Bool() *bool {
	switch v {
	case Yes:
		t := true
		return &t
	case No:
		f := false
		return &f
	default:
		return nil
	}
}

// UnmarshalParam implements echo.BindUnmarshaler so form fields bind directly.
func (v *Value) UnmarshalParam(param string) error {
	*v = Parse(param)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v == Unknown {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Unknown
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Parse(s)
	return nil
}
