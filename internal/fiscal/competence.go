// Package fiscal implements the pure calendar rules behind obligation
// tracking: competence sequences, due-date and internal-target derivation,
// the monthly period lock, and lifecycle status computation. Every function
// receives "now" explicitly so callers stay deterministic under test.
package fiscal

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Frequency enumerates how often an obligation recurs.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
)

// Valid reports whether the frequency is one of the known values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyAnnual:
		return true
	}
	return false
}

// ErrInvalidCompetence indicates a competence string not matching MM/YYYY.
var ErrInvalidCompetence = errors.New("fiscal: invalid competence format")

// ErrInvalidFrequency indicates an unknown frequency value.
var ErrInvalidFrequency = errors.New("fiscal: invalid frequency")

var competencePattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{4})$`)

// Competence identifies the calendar month a fiscal obligation pertains to.
type Competence struct {
	Month time.Month
	Year  int
}

// ParseCompetence validates and parses a MM/YYYY competence string.
func ParseCompetence(s string) (Competence, error) {
	m := competencePattern.FindStringSubmatch(s)
	if m == nil {
		return Competence{}, fmt.Errorf("%w: %q", ErrInvalidCompetence, s)
	}
	var month, year int
	_, _ = fmt.Sscanf(m[1], "%d", &month)
	_, _ = fmt.Sscanf(m[2], "%d", &year)
	return Competence{Month: time.Month(month), Year: year}, nil
}

// String renders the competence in MM/YYYY form.
func (c Competence) String() string {
	return fmt.Sprintf("%02d/%04d", int(c.Month), c.Year)
}

// First returns midnight UTC on the first day of the competence month.
func (c Competence) First() time.Time {
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the competence of the following calendar month.
func (c Competence) Next() Competence {
	t := c.First().AddDate(0, 1, 0)
	return Competence{Month: t.Month(), Year: t.Year()}
}

// CompetenceOf returns the competence of the month containing t.
func CompetenceOf(t time.Time) Competence {
	return Competence{Month: t.Month(), Year: t.Year()}
}

// GenerateCompetences produces the ordered competence sequence a binding
// should yield instances for. The window starts at max(anchor, now)
// normalized to the first of its month and spans monthsAhead months,
// inclusive on both ends. Monthly and weekly obligations emit one competence
// per calendar month; weekly keeps a monthly generation cadence, the
// frequency label only affects reporting. Annual obligations emit only the
// competences whose month matches the anchor month.
func GenerateCompetences(anchor, now time.Time, freq Frequency, monthsAhead int) ([]Competence, error) {
	if !freq.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}
	if monthsAhead < 0 {
		monthsAhead = 0
	}
	start := anchor
	if now.After(start) {
		start = now
	}
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]Competence, 0, monthsAhead+1)
	for i := 0; i <= monthsAhead; i++ {
		t := first.AddDate(0, i, 0)
		c := Competence{Month: t.Month(), Year: t.Year()}
		if freq == FrequencyAnnual && c.Month != anchor.Month() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
