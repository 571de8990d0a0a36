package domain

import (
	"errors"
	"fmt"
	"time"
)

// IntervalType is the unit a rule recurs in.
type IntervalType string

const (
	IntervalDays   IntervalType = "days"
	IntervalMonths IntervalType = "months"
	IntervalUses   IntervalType = "uses"
)

// ErrUsageBasedInterval is returned for usage-counted intervals. Their due
// date is driven by a usage counter, not by the calendar.
var ErrUsageBasedInterval = errors.New("usage-based interval has no calendar due date")

// Interval is a recurrence step.
type Interval struct {
	Type  IntervalType
	Value int
}

// IsTimeBased reports whether the interval resolves to calendar dates.
func (i Interval) IsTimeBased() bool {
	return i.Type == IntervalDays || i.Type == IntervalMonths
}

// Next returns the due date one interval after anchor.
func (i Interval) Next(anchor time.Time) (time.Time, error) {
	return i.Occurrence(anchor, 1)
}

// Occurrence returns the k-th due date counted from anchor (k=0 is the anchor
// date itself). Each occurrence is computed from the anchor, so clamped month
// ends do not accumulate: Jan 31 + 2 months is Mar 31, not Mar 28.
func (i Interval) Occurrence(anchor time.Time, k int) (time.Time, error) {
	if k < 0 {
		return time.Time{}, fmt.Errorf("occurrence index must not be negative: %d", k)
	}
	if i.Value <= 0 {
		return time.Time{}, fmt.Errorf("interval value must be positive: %d", i.Value)
	}

	base := DateOf(anchor)
	switch i.Type {
	case IntervalDays:
		return base.AddDate(0, 0, i.Value*k), nil
	case IntervalMonths:
		return AddMonthsClamped(base, i.Value*k), nil
	case IntervalUses:
		return time.Time{}, ErrUsageBasedInterval
	default:
		return time.Time{}, fmt.Errorf("unknown interval type %q", i.Type)
	}
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped adds months to t, clamping the day to the last day of the
// target month when it would overflow.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(firstOfTarget.Year(), firstOfTarget.Month())
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
