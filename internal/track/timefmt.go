package track

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTime converts "H:M:S", "M:S" or "S" into seconds. Fields after the
// first are not range checked, so "90" and "1:30" are both 90 seconds.
func ParseTime(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has more than three fields", ErrInvalidTime, raw)
	}

	seconds := 0
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
		}
		if seconds > (math.MaxInt-value)/60 {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidTime, raw)
		}
		seconds = seconds*60 + value
	}
	return seconds, nil
}

// FormatTime renders seconds as zero padded hours, minutes and seconds joined
// by sep.
func FormatTime(seconds int, sep string) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	seconds -= hours * 3600
	minutes := seconds / 60
	seconds -= minutes * 60
	return fmt.Sprintf("%02d%s%02d%s%02d", hours, sep, minutes, sep, seconds)
}
