package fiscal

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDay indicates a day-of-month outside 1..31.
var ErrInvalidDay = errors.New("fiscal: day of month out of range")

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDay pins day to the last valid day of the month instead of letting
// date arithmetic roll it into the following month. Day 31 in a 30-day month
// becomes day 30.
func clampDay(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DueDate computes the legal due date for a competence. When legalDueDay is
// nil the obligation falls back to the last day of the month following the
// competence; otherwise it is the legalDueDay-th day of that month, clamped
// to the month's length.
func DueDate(c Competence, legalDueDay *int) (time.Time, error) {
	next := c.Next()
	if legalDueDay == nil {
		return clampDay(next.Year, next.Month, 31), nil
	}
	if *legalDueDay < 1 || *legalDueDay > 31 {
		return time.Time{}, fmt.Errorf("%w: legal due day %d", ErrInvalidDay, *legalDueDay)
	}
	return clampDay(next.Year, next.Month, *legalDueDay), nil
}

// InternalTargetDate computes the accountant's internal working deadline for
// a competence: the targetDay-th day of the month following the competence,
// clamped. The work for competence M happens in M+1, so the target lives in
// the same month as the legal due date and always at or before it in
// practice.
func InternalTargetDate(c Competence, targetDay int) (time.Time, error) {
	if targetDay < 1 || targetDay > 31 {
		return time.Time{}, fmt.Errorf("%w: target day %d", ErrInvalidDay, targetDay)
	}
	next := c.Next()
	return clampDay(next.Year, next.Month, targetDay), nil
}

// DateOnly strips the time-of-day portion, keeping midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
