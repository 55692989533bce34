package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// TimeWindow resolves a [from, to) query range. An empty to means now, an
// empty from means to minus span. Both ends are truncated to the minute.
func TimeWindow(fromS, toS string, now time.Time, span time.Duration) (time.Time, time.Time, error) {
	to := now
	if toS != "" {
		t, ok := ParseTime(toS)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %q", toS)
		}
		to = t
	}
	from := to.Add(-span)
	if fromS != "" {
		t, ok := ParseTime(fromS)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %q", fromS)
		}
		from = t
	}

	from, to = from.UTC().Truncate(time.Minute), to.UTC().Truncate(time.Minute)
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be before to")
	}
	return from, to, nil
}
