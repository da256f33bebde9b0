package fiscal

import (
	"fmt"
	"time"
)

// CutoffDay is the day of month on which the previous fiscal month is
// finalised ("apuração"). From this day on, records dated in the previous
// month become immutable.
const CutoffDay = 10

// PeriodLockMessage is the fixed user-facing rejection shown when a mutation
// falls outside the allowed period. Period-lock denials are decisions, not
// errors, and are never surfaced as backend failures.
const PeriodLockMessage = "Este lançamento pertence a um período já apurado e não pode mais ser alterado. Entre em contato com o suporte."

// WithinAllowedPeriod reports whether a record dated target may still be
// created, edited or deleted at instant now. The current calendar month is
// always allowed; the previous month stays open until the cutoff day,
// including the January/December rollover.
func WithinAllowedPeriod(target, now time.Time) bool {
	if target.Year() == now.Year() && target.Month() == now.Month() {
		return true
	}
	if now.Day() < CutoffDay {
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return target.Year() == prev.Year() && target.Month() == prev.Month()
	}
	return false
}

// CanModifyOnDate gates fiscal-record mutations by their payment date. A nil
// payment date means the record is unpaid and carries no restriction.
func CanModifyOnDate(paymentDate *time.Time, now time.Time) bool {
	if paymentDate == nil {
		return true
	}
	return WithinAllowedPeriod(*paymentDate, now)
}

// AllowedPeriodDescription renders the currently editable competences for
// user display, e.g. "02/2025 ou 03/2025" before the cutoff day.
func AllowedPeriodDescription(now time.Time) string {
	current := CompetenceOf(now)
	if now.Day() < CutoffDay {
		prev := CompetenceOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))
		return fmt.Sprintf("%s ou %s", prev, current)
	}
	return current.String()
}
