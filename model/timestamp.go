package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a time.Time carried over the wire as an ISO-8601 string.
// The server prefers fractional seconds; decoding tries the fractional
// layout first and falls back to the plain RFC3339 variant.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t in a Timestamp.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp is not a JSON string: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
