package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// localLayout is the zone-less ISO-8601 form the backend uses for timestamps.
const localLayout = "2006-01-02T15:04:05"

// LocalTime is a wall-clock timestamp serialized without a zone offset.
// Zoned RFC 3339 input is accepted and kept as is.
type LocalTime struct {
	time.Time
}

// Now returns the current local time truncated to seconds.
func Now() LocalTime {
	return LocalTime{Time: time.Now().Truncate(time.Second)}
}

// MarshalJSON encodes the time as "2006-01-02T15:04:05"; the zero time
// encodes as null.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(localLayout))
}

// UnmarshalJSON accepts null, zone-less ISO-8601 with optional fractional
// seconds, and RFC 3339.
func (t *LocalTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	// Fractional seconds are accepted after the seconds field.
	if parsed, err := time.ParseInLocation(localLayout, s, time.Local); err == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}
