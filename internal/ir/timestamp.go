package ir

import (
	"fmt"
	"time"
)

// TimestampLayout is the persisted timestamp format: ISO-8601 in UTC with a
// fixed nine-digit fraction. Fixed width makes lexicographic order on the
// text columns identical to chronological order on every engine.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

const dateLayout = "2006-01-02"

// acceptedLayouts are tried in order by NormalizeTimestamp.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	dateLayout,
}

// NormalizeTimestamp parses an ISO-8601 timestamp or date and re-renders it in
// TimestampLayout. Values without a zone are taken as UTC.
func NormalizeTimestamp(s string) (string, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatTimestamp(t), nil
		}
	}
	return "", fmt.Errorf("invalid timestamp %q: expected ISO-8601", s)
}

// NormalizeUpperBound is NormalizeTimestamp for an inclusive upper bound:
// a bare date covers the whole day and ends at its last nanosecond.
func NormalizeUpperBound(s string) (string, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return FormatTimestamp(t.AddDate(0, 0, 1).Add(-time.Nanosecond)), nil
	}
	return NormalizeTimestamp(s)
}
