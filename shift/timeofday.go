package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsPerDay is the length of a calendar day in seconds.
const SecondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time with no date component, stored as seconds
// since midnight. Values produced by parsing or by TimeOfDayOf are always in
// [0, SecondsPerDay). Add does not wrap, so a derived value may exceed a day.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components without validation.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf extracts the time of day of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay parses "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, sec, err := parseClock(s)
	if err != nil {
		return 0, err
	}
	if h > 23 {
		return 0, fmt.Errorf("invalid time of day %q: hour out of range", s)
	}
	return NewTimeOfDay(h, m, sec), nil
}

// ParseClockDuration parses an "HH:MM:SS" (or "HH:MM") clock value as a
// duration, the way late thresholds are stored.
func ParseClockDuration(s string) (time.Duration, error) {
	h, m, sec, err := parseClock(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

// FormatClockDuration renders d as "HH:MM:SS", truncating sub-second precision.
func FormatClockDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func parseClock(s string) (h, m, sec int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid clock value %q: expected HH:MM:SS", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 0 || p == "" {
			return 0, 0, 0, fmt.Errorf("invalid clock value %q", s)
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 {
		return 0, 0, 0, fmt.Errorf("invalid clock value %q: minute or second out of range", s)
	}
	return vals[0], vals[1], vals[2], nil
}

// Add returns the time of day d later. The result is not wrapped at midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Second)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int {
	return int(t) / 3600
}

func (t TimeOfDay) String() string {
	return FormatClockDuration(time.Duration(t) * time.Second)
}

// MarshalText renders the value as "HH:MM:SS".
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses "HH:MM:SS" or "HH:MM".
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
