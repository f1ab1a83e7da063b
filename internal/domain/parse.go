package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (seconds are dropped).
// Spreadsheets often export "5:07", so single-digit hours are accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, errors.New("invalid minute")
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(strings.TrimSpace(parts[2])); err != nil || sec < 0 || sec > 59 {
			return TimeOfDay{}, errors.New("invalid second")
		}
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// ParseLocation accepts an IANA name ("Europe/Moscow") or a fixed offset
// written as "UTC+03:00" / "+0300".
func ParseLocation(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty timezone")
	}
	off := strings.TrimPrefix(strings.TrimPrefix(s, "UTC"), "GMT")
	if off != "" && (off[0] == '+' || off[0] == '-') {
		sign := 1
		if off[0] == '-' {
			sign = -1
		}
		digits := strings.ReplaceAll(off[1:], ":", "")
		if len(digits) == 2 {
			digits += "00"
		}
		if len(digits) != 4 {
			return nil, fmt.Errorf("invalid offset %q", s)
		}
		h, err1 := strconv.Atoi(digits[:2])
		m, err2 := strconv.Atoi(digits[2:])
		if err1 != nil || err2 != nil || h > 14 || m > 59 {
			return nil, fmt.Errorf("invalid offset %q", s)
		}
		return time.FixedZone(s, sign*(h*3600+m*60)), nil
	}
	return time.LoadLocation(s)
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FormatRemaining renders d as "2 hours 5 minutes", rounding seconds up to
// the next minute. Anything under a minute reads "less than a minute".
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	mins := int((d + time.Minute - 1) / time.Minute)
	days, mins := mins/(24*60), mins%(24*60)
	hours, mins := mins/60, mins%60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if mins > 0 {
		parts = append(parts, plural(mins, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
