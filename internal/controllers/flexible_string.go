package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleString allows JSON fields to be provided as string or number
// (phone numbers and NICs often arrive as numbers from spreadsheets).
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	if fs == nil {
		return fmt.Errorf("FlexibleString: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*fs = FlexibleString(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*fs = FlexibleString(num.String())
		return nil
	}

	return fmt.Errorf("FlexibleString: expected string or number, got %s", string(data))
}

func (fs FlexibleString) String() string {
	return string(fs)
}

// ptr returns nil for a nil FlexibleString, else its string value.
func (fs *FlexibleString) ptr() *string {
	if fs == nil {
		return nil
	}
	s := fs.String()
	return &s
}

// FlexibleBool accepts true/false as JSON booleans or as the strings multipart
// forms send ("true", "1", "yes", ...).
type FlexibleBool bool

func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*fb = FlexibleBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if v, ok := parseBool(s); ok {
			*fb = FlexibleBool(v)
			return nil
		}
	}
	return fmt.Errorf("FlexibleBool: expected boolean, got %s", string(data))
}

func parseBool(val string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "y", "active":
		return true, true
	case "false", "0", "no", "n", "inactive":
		return false, true
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b, true
	}
	return false, false
}
