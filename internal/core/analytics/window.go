package analytics

import (
	"fmt"
	"time"
)

// Accepted layouts for caller-supplied bounds: a bare calendar date or a
// full timestamp, matching what the CLI and API accept.
var boundLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
}

// ParseBound parses a caller-supplied date or timestamp string.
// An empty string parses to the zero time, meaning "not supplied".
// Returns ErrInvalidBound for anything unparsable.
func ParseBound(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD or ISO8601)", ErrInvalidBound, s)
}

// DayOf truncates a timestamp to its calendar day boundary in loc.
// This is the grouping key of the summary store.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay widens a timestamp to the last representable instant of its day
// (23:59:59.999999). Applied to auto-detected upper bounds so an exclusive
// comparison cannot drop readings from the final day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, loc)
}
