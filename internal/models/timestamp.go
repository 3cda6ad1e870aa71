package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is an ISO-8601 instant as written in data.json. Text read from
// disk is kept verbatim so rewriting a file never reformats it; values made
// by NewTimestamp are RFC 3339 UTC.
type Timestamp struct {
	raw string
}

// NewTimestamp formats t as RFC 3339 UTC with nanosecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{raw: t.UTC().Format(time.RFC3339Nano)}
}

// ParseTimestamp wraps s without validating it.
func ParseTimestamp(s string) Timestamp {
	return Timestamp{raw: s}
}

// String returns the stored text.
func (t Timestamp) String() string { return t.raw }

// IsZero reports whether no value is stored.
func (t Timestamp) IsZero() bool { return t.raw == "" }

// Time parses the stored text. ok is false for empty or non-RFC 3339 text.
func (t Timestamp) Time() (time.Time, bool) {
	if t.raw == "" {
		return time.Time{}, false
	}
	v, err := time.Parse(time.RFC3339Nano, t.raw)
	if err != nil {
		return time.Time{}, false
	}
	return v, true
}

// Equal compares instants when both parse and the text otherwise.
func (t Timestamp) Equal(o Timestamp) bool {
	a, okA := t.Time()
	b, okB := o.Time()
	if okA && okB {
		return a.Equal(b)
	}
	return t.raw == o.raw
}

// After reports whether t is later than o. Unparsable values count as the
// oldest possible instant.
func (t Timestamp) After(o Timestamp) bool {
	a, okA := t.Time()
	b, okB := o.Time()
	switch {
	case !okA:
		return false
	case !okB:
		return true
	default:
		return a.After(b)
	}
}

// MarshalJSON writes the stored text as a JSON string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.raw)
}

// UnmarshalJSON accepts any JSON string; null reads as empty.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.raw = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.raw = s
	return nil
}
