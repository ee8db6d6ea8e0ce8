// Package calendar holds the pure date arithmetic used by schedule generation.
// Every function interprets its arguments in the location they carry; nothing
// here reads the local time zone or the wall clock.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout used for calendar dates in config files and workbooks.
const DateLayout = "2006-01-02"

// Clock is a time of day measured in minutes after midnight.
type Clock int

// At returns the Clock for hour:minute.
func At(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "15:04" or "3:04 PM" style times.
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("time is required")
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		formats := []string{"3:04 PM", "03:04 PM", "3:04PM", "03:04PM"}
		for _, format := range formats {
			if parsed, err = time.Parse(format, strings.ToUpper(raw)); err == nil {
				return At(parsed.Hour(), parsed.Minute()), nil
			}
		}
		return 0, fmt.Errorf("time %q must be in HH:MM or H:MM AM/PM format", raw)
	}
	return At(parsed.Hour(), parsed.Minute()), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant at this time of day on the given date, in the date's location.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateIn reinterprets the calendar date of t as midnight in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// civil maps a date onto a zone-free key so dates from different locations compare by calendar day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return civil(a).Equal(civil(b))
}

// NextOccurrence returns the first date on or after onOrAfter that falls on day.
func NextOccurrence(day time.Weekday, onOrAfter time.Time) time.Time {
	start := DateOnly(onOrAfter)
	delta := (int(day) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, delta)
}

// Range is an inclusive span of calendar dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether date falls on or between the range's first and last day.
func (r Range) Contains(date time.Time) bool {
	d := civil(date)
	return !d.Before(civil(r.Start)) && !d.After(civil(r.End))
}

// Overlaps reports whether the two ranges share at least one calendar day.
func (r Range) Overlaps(o Range) bool {
	return !civil(r.Start).After(civil(o.End)) && !civil(o.Start).After(civil(r.End))
}

func (r Range) String() string {
	if SameDate(r.Start, r.End) {
		return r.Start.Format(DateLayout)
	}
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// RangeIndex returns the index of the first range containing date, or -1.
func RangeIndex(date time.Time, ranges []Range) int {
	for i, r := range ranges {
		if r.Contains(date) {
			return i
		}
	}
	return -1
}

// WithinAnyRange reports whether date falls inside any of ranges.
func WithinAnyRange(date time.Time, ranges []Range) bool {
	return RangeIndex(date, ranges) >= 0
}

// DaysBetween counts calendar days from a to b, ignoring time of day and DST.
func DaysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours() / 24)
}

// WeekOfSeason returns the 1-based calendar week of date counted from seasonStart.
// Dates before the season start return 0.
func WeekOfSeason(seasonStart, date time.Time) int {
	days := DaysBetween(seasonStart, date)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}
