package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDuration   = errors.New("empty duration")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrDurationRange   = errors.New("duration out of range")
)

var (
	reHours   = regexp.MustCompile(`(?i)(\d+)\s*h`)
	reMinutes = regexp.MustCompile(`(?i)(\d+)\s*m`)
	reDays    = regexp.MustCompile(`(?i)(\d+)\s*d`)
)

// ParseDurationHuman parses human-friendly durations like "45m", "2h", "1h30m",
// "3d" or a bare number of minutes ("90"). Accepted range: 1m..30d.
func ParseDurationHuman(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, ErrEmptyDuration
	}

	var total time.Duration
	if isAllDigits(s) {
		mins, _ := strconv.Atoi(s)
		total = time.Duration(mins) * time.Minute
	} else {
		if m := reDays.FindStringSubmatch(s); len(m) == 2 {
			d, _ := strconv.Atoi(m[1])
			total += time.Duration(d) * 24 * time.Hour
		}
		if m := reHours.FindStringSubmatch(s); len(m) == 2 {
			h, _ := strconv.Atoi(m[1])
			total += time.Duration(h) * time.Hour
		}
		if m := reMinutes.FindStringSubmatch(s); len(m) == 2 {
			min, _ := strconv.Atoi(m[1])
			total += time.Duration(min) * time.Minute
		}
		if total == 0 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
	}

	if total < time.Minute {
		return 0, fmt.Errorf("%w: min 1m", ErrDurationRange)
	}
	if total > 30*24*time.Hour {
		return 0, fmt.Errorf("%w: max 30d", ErrDurationRange)
	}
	return total, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatDuration renders d compactly ("2h30m", "45m", "3d").
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	mins := int(d/time.Minute) % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if mins > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%dm", mins)
	}
	return b.String()
}

// ParseBirthDate accepts YYYY-MM-DD or DD.MM.YYYY.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: expected YYYY-MM-DD", ErrInvalidInput)
}
