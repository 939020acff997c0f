package msg

import (
	"strings"
	"time"
)

// Accepted created_at layouts. The backend emits RFC 3339 with offsets; CSV
// snapshots and manual filters may use the shorter forms.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime interprets an ISO-8601-like timestamp string. ok is false when
// the value cannot be parsed; malformed timestamps are a policy decision for
// the caller (sort-first, keep-on-purge), never an error.
func ParseTime(s string) (time.Time, bool) {
	value := strings.TrimSpace(s)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimeOrEpoch returns the parsed timestamp in Unix milliseconds, or 0 for
// missing/unparseable values so they sort first.
func TimeOrEpoch(s string) int64 {
	t, ok := ParseTime(s)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}
