package grid

import (
	"regexp"
	"strings"
)

var (
	exactClock = regexp.MustCompile(`^\d{2}:\d{2}$`)
	embedClock = regexp.MustCompile(`(\d{2}):(\d{2})`)
)

// FormatTime renders a wall-clock string as HH:mm. Already formatted values
// pass through, the first HH:mm inside longer strings is extracted, anything
// else is returned unchanged.
func FormatTime(raw string) string {
	if raw == "" || exactClock.MatchString(raw) {
		return raw
	}
	if m := embedClock.FindStringSubmatch(raw); m != nil {
		return m[1] + ":" + m[2]
	}
	return raw
}

// TimeRange joins two formatted times, empty when both are missing.
func TimeRange(start, end string) string {
	start, end = FormatTime(start), FormatTime(end)
	if start == "" && end == "" {
		return ""
	}
	return start + "-" + end
}

// Truncate shortens s to at most limit runes followed by an ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
