package memory

import "time"

// timeLayout is the wire format used for all timestamp columns; naive
// (no-offset) values are interpreted as UTC.
const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func mustParseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t.UTC()
	}
	// SQLite's CURRENT_TIMESTAMP and a few legacy layouts lack the
	// fractional-second/offset suffix; fall back to the plain layout.
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func now() time.Time { return time.Now().UTC() }
