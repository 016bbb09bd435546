package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadClock is returned for clock strings that are not "H:MM" / "HH:MM".
var ErrBadClock = errors.New("schedule: malformed clock time")

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayName returns the short English name of a weekday ("Mon").
func DayName(d time.Weekday) string {
	return dayNames[normalizeWeekday(d)]
}

// StartOfWeek returns midnight of the first day of the week containing date,
// where weeks begin on weekStartsOn. The result keeps date's location.
func StartOfWeek(date time.Time, weekStartsOn time.Weekday) time.Time {
	diff := columnOf(date.Weekday(), weekStartsOn)
	return time.Date(date.Year(), date.Month(), date.Day()-diff, 0, 0, 0, 0, date.Location())
}

// AddDays adds n calendar days, keeping the wall-clock time across DST changes.
func AddDays(date time.Time, n int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day()+n,
		date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

// SameDate reports whether a and b fall on the same calendar date in a's location.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// TimeToMinutes parses "HH:MM" (or "H:MM") into minutes since midnight.
// "24:00" is accepted as end of day.
func TimeToMinutes(clock string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 || !allDigits(h) || !allDigits(m) {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	if hours < 0 || hours > 24 || mins < 0 || mins > 59 || (hours == 24 && mins != 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	return hours*60 + mins, nil
}

// MinsToLabel formats minutes since midnight as a 12-hour label:
// 555 -> "9:15am", 780 -> "1pm".
func MinsToLabel(mins int) string {
	h, m := mins/60, mins%60
	suffix := "am"
	if h%24 >= 12 {
		suffix = "pm"
	}
	hh := (h+11)%12 + 1
	if m == 0 {
		return strconv.Itoa(hh) + suffix
	}
	return fmt.Sprintf("%d:%02d%s", hh, m, suffix)
}

// columnOf maps a weekday to its column in a week starting on weekStartsOn.
func columnOf(day, weekStartsOn time.Weekday) int {
	return (normalizeWeekday(day) - normalizeWeekday(weekStartsOn) + 7) % 7
}

func normalizeWeekday(d time.Weekday) int {
	return (int(d)%7 + 7) % 7
}
