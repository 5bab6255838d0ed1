package util

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the textual date encodings accepted from index files,
// the command line, and dates files.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"01/02/2006",
}

// Day truncates t to midnight UTC of its calendar date in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// ParseDate parses s as YYYY-MM-DD, YYYYMMDD, or MM/DD/YYYY and returns
// midnight UTC of that date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DaysBack returns n consecutive calendar dates starting at from and
// walking backwards one day at a time.
func DaysBack(from time.Time, n int) []time.Time {
	from = Day(from)
	days := make([]time.Time, 0, max(n, 0))
	for i := 0; i < n; i++ {
		days = append(days, from.AddDate(0, 0, -i))
	}
	return days
}

// ExchangeLocation returns the US equity exchange time zone, falling back
// to a fixed EST offset when the zone database is unavailable.
func ExchangeLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// SameDay reports whether a and b fall on the same calendar date when a is
// viewed in loc and b is taken as a UTC calendar date.
func SameDay(a time.Time, loc *time.Location, b time.Time) bool {
	a = a.In(loc)
	ay, am, ad := a.Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
