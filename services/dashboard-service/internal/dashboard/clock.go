package dashboard

import (
	"fmt"
	"time"
)

// Clock is the only source of "now" for an aggregation.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and the CLI --at flag.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

const minutesPerDay = 24 * 60

// Moment is the single reference instant captured at the start of an
// aggregation and handed to every collector.
type Moment struct {
	Now    time.Time // in the dashboard location
	Day    time.Time // calendar day being reported, midnight in the same location
	Minute int       // minutes since midnight of Now, seconds truncated
}

func newMoment(now time.Time, day time.Time, loc *time.Location) Moment {
	now = now.In(loc)
	if day.IsZero() {
		day = now
	}
	return Moment{
		Now:    now,
		Day:    startOfDay(day, loc),
		Minute: now.Hour()*60 + now.Minute(),
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay parses YYYY-MM-DD as a calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, loc)
}

// ParseClock converts "HH:MM" (or "HH:MM:SS") to minutes since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (int, error) {
	var h, m, sec int
	if n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); n < 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM", clamped to [00:00, 24:00].
func FormatClock(minute int) string {
	minute = max(0, min(minute, minutesPerDay))
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// mustClock treats malformed stored times as midnight; the columns are
// constrained to HH:MM by the writers.
func mustClock(s string) int {
	m, err := ParseClock(s)
	if err != nil {
		return 0
	}
	return m
}
