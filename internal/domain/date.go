package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// NormalizeDate drops the clock part and returns midnight UTC of the same
// calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ExpandDates returns every date from..to inclusive. When weekdays is
// non-empty only dates falling on one of those weekdays are kept.
func ExpandDates(from, to time.Time, weekdays []time.Weekday) []time.Time {
	from, to = NormalizeDate(from), NormalizeDate(to)
	if to.Before(from) {
		return nil
	}

	var keep map[time.Weekday]bool
	if len(weekdays) > 0 {
		keep = make(map[time.Weekday]bool, len(weekdays))
		for _, wd := range weekdays {
			keep[wd] = true
		}
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if keep != nil && !keep[d.Weekday()] {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// DaysBetween returns the number of calendar days in from..to inclusive.
func DaysBetween(from, to time.Time) int {
	return int(NormalizeDate(to).Sub(NormalizeDate(from)).Hours()/24) + 1
}
