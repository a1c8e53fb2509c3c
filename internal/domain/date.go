// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical ISO-8601 calendar date format used on the wire,
// in lock names and in logs.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day or zone.
// The zero value is not a valid date; use IsZero to detect it.
// Dates are comparable with == and usable as map keys.
type Date struct {
	t time.Time // always midnight UTC
}

// NewDate builds a Date. Out-of-range values are normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return Date{t: t}, nil
}

// MustParseDate is ParseDate for constants and tests. It panics on bad input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}

	return d
}

// String returns the ISO form, e.g. "2026-10-20".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return d.t.Format(DateLayout)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Year, Month and Day expose the calendar fields.
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }

// AddDays returns d shifted by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths returns d shifted by n calendar months. When the target month is
// shorter, the day is clamped to its last day (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()

	day := d.Day()
	if day > last {
		day = last
	}

	return NewDate(first.Year(), first.Month(), day)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

// MarshalText implements encoding.TextMarshaler so Date encodes as "YYYY-MM-DD" in JSON.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// Clock returns the current calendar day. It is injected so "today" can be
// pinned in tests and computed in the business time zone in production.
type Clock interface {
	Today() Date
}

// ZoneClock reports today's date in a fixed location.
type ZoneClock struct {
	Location *time.Location
}

// Today implements Clock.
func (c ZoneClock) Today() Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	return DateOf(time.Now().In(loc))
}

// FixedClock always reports the same day.
type FixedClock Date

// Today implements Clock.
func (c FixedClock) Today() Date {
	return Date(c)
}
