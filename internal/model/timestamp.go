package model

import (
	"bytes"
	"fmt"
	"time"
)

// TimestampLayout matches Date.prototype.toISOString in the browser.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a creation instant persisted as a UTC string with
// millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.UTC().Format(TimestampLayout) + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 string. null and "" leave the zero value.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		ts.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp: expected string, got %s", data)
	}
	parsed, err := time.Parse(time.RFC3339Nano, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	ts.Time = parsed
	return nil
}
