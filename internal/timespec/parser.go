package timespec

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for absolute timestamps, most precise first.
var layouts = []string{
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

// ParseTimestamp parses an absolute timestamp: RFC3339
// ("2025-10-29T13:00:00Z"), "2025-10-29 13:00:00", or a bare date
// ("2025-10-29"). Layouts without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %s (use RFC3339 like '2025-10-29T13:00:00Z' or a date like '2025-10-29')", s)
}

// Parse parses a time specification relative to now.
// Supports:
//   - Go duration format: "1h", "30m", "1h30m", "2h45m30s"
//   - Day counts: "7d"
//   - Absolute timestamps accepted by ParseTimestamp
//
// Duration specifications are relative to now (subtracted from it).
// For example, "1h" means "1 hour ago".
func Parse(spec string, now time.Time) (time.Time, error) {
	if spec == "" {
		return time.Time{}, fmt.Errorf("empty time specification")
	}

	if t, err := ParseTimestamp(spec); err == nil {
		return t, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d), nil
	}

	// time.ParseDuration has no day unit
	if days, ok := strings.CutSuffix(spec, "d"); ok {
		var n int
		if _, err := fmt.Sscanf(days, "%d", &n); err == nil && fmt.Sprint(n) == days && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or '7d', or a date like '2025-10-29')", spec)
}

// ParseRange parses both --since and --until flags into a time range.
// Zero values indicate "no bound" for that end of the range.
//
// Validates that since < until if both are specified.
func ParseRange(since, until string, now time.Time) (time.Time, time.Time, error) {
	var sinceT, untilT time.Time
	var err error

	if since != "" {
		sinceT, err = Parse(since, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilT, err = Parse(until, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if !sinceT.IsZero() && !untilT.IsZero() && !sinceT.Before(untilT) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}

	return sinceT, untilT, nil
}
