package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("invalid date range")

// ContinuousDates returns every calendar day from start to end inclusive,
// in ascending order. A same-day range yields one date.
func ContinuousDates(start, end Date) ([]Date, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, end, start)
	}

	dates := make([]Date, 0, DaysInclusive(start, end))
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}

	return dates, nil
}

// LockKeys maps ContinuousDates to their ISO strings. The ascending order is
// the canonical lock acquisition order.
func LockKeys(start, end Date) ([]string, error) {
	dates, err := ContinuousDates(start, end)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = d.String()
	}

	return keys, nil
}

// DaysInclusive counts the days of [start, end], so a same-day range is 1.
// It returns 0 when end is before start.
func DaysInclusive(start, end Date) int {
	if end.Before(start) {
		return 0
	}

	return int(end.Time().Sub(start.Time()).Hours()/24) + 1
}

// MonthsBetween counts whole calendar months from start to end. A month only
// counts once end's day-of-month reaches start's, so 01-15..02-14 is 0 and
// 01-15..02-15 is 1. Negative when end precedes start.
func MonthsBetween(start, end Date) int {
	months := (end.Year()*12 + int(end.Month())) - (start.Year()*12 + int(start.Month()))

	switch {
	case months > 0 && end.Day() < start.Day():
		months--
	case months < 0 && end.Day() > start.Day():
		months++
	}

	return months
}

// DateRange is an inclusive [Start, End] span of days.
type DateRange struct {
	Start Date
	End   Date
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

// Clip returns the intersection of r with window and whether it is non-empty.
func (r DateRange) Clip(window DateRange) (DateRange, bool) {
	if !r.Overlaps(window) {
		return DateRange{}, false
	}

	out := r
	if out.Start.Before(window.Start) {
		out.Start = window.Start
	}
	if out.End.After(window.End) {
		out.End = window.End
	}

	return out, true
}
