// Package datetime provides date utilities for dated market and filing data.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO date format written to reports.
const DateLayout = "2006-01-02"

// daysPerYear is the mean Gregorian year length.
const daysPerYear = 365.2425

// Layouts are tried in order by ParseDate.
var Layouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"20060102",
}

// ParseDate parses s with the first layout in Layouts that accepts it.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// YearsBetween returns the span from start to end in years, negative when
// end precedes start.
func YearsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / daysPerYear
}
