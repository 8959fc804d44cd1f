// Package week maps calendar dates to Monday-start weeks.
package week

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date form used in query strings.
const DateLayout = "2006-01-02"

// Range is a Monday..Sunday week, both bounds inclusive, held as civil dates
// at UTC midnight.
type Range struct {
	Start time.Time
	End   time.Time
}

// Of returns the week containing date. Only the civil date of the input in its
// own location is considered.
func Of(date time.Time) Range {
	day := civil(date)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return Range{Start: start, End: start.AddDate(0, 0, 6)}
}

// From is the ISO form of the Monday.
func (r Range) From() string { return r.Start.Format(DateLayout) }

// To is the ISO form of the Sunday.
func (r Range) To() string { return r.End.Format(DateLayout) }

// Next is the following week.
func (r Range) Next() Range { return Of(r.Start.AddDate(0, 0, 7)) }

// Prev is the preceding week.
func (r Range) Prev() Range { return Of(r.Start.AddDate(0, 0, -7)) }

// Contains reports whether the civil date of t lies inside the week.
func (r Range) Contains(t time.Time) bool {
	day := civil(t)
	return !day.Before(r.Start) && !day.After(r.End)
}

// Days lists the seven dates Monday..Sunday.
func (r Range) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = r.Start.AddDate(0, 0, i)
	}
	return days
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.From(), r.To())
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
