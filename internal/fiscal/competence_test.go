package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCompetence(t *testing.T) {
	c, err := ParseCompetence("01/2025")
	require.NoError(t, err)
	require.Equal(t, time.January, c.Month)
	require.Equal(t, 2025, c.Year)
	require.Equal(t, "01/2025", c.String())

	for _, bad := range []string{"", "2025/01", "13/2025", "00/2025", "1/2025", "01-2025", "01/25", "aa/2025"} {
		_, err := ParseCompetence(bad)
		require.ErrorIs(t, err, ErrInvalidCompetence, "input %q", bad)
	}
}

func TestCompetenceNextRollsYear(t *testing.T) {
	c := Competence{Month: time.December, Year: 2024}
	next := c.Next()
	require.Equal(t, time.January, next.Month)
	require.Equal(t, 2025, next.Year)
}

func TestGenerateCompetencesMonthly(t *testing.T) {
	anchor := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	seq, err := GenerateCompetences(anchor, now, FrequencyMonthly, 12)
	require.NoError(t, err)
	require.Len(t, seq, 13)
	require.Equal(t, "01/2025", seq[0].String())
	require.Equal(t, "12/2025", seq[11].String())
	require.Equal(t, "01/2026", seq[12].String())

	// Exactly one entry per calendar month, in order.
	for i := 1; i < len(seq); i++ {
		require.Equal(t, seq[i-1].Next(), seq[i])
	}
}

func TestGenerateCompetencesStartsAtNowWhenAnchorPast(t *testing.T) {
	anchor := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.February, 20, 12, 0, 0, 0, time.UTC)

	seq, err := GenerateCompetences(anchor, now, FrequencyMonthly, 3)
	require.NoError(t, err)
	require.Equal(t, "02/2025", seq[0].String())
	require.Len(t, seq, 4)
}

func TestGenerateCompetencesAnnual(t *testing.T) {
	anchor := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	now := anchor

	seq, err := GenerateCompetences(anchor, now, FrequencyAnnual, 12)
	require.NoError(t, err)
	require.Len(t, seq, 2)
	require.Equal(t, "04/2025", seq[0].String())
	require.Equal(t, "04/2026", seq[1].String())
}

func TestGenerateCompetencesWeeklyKeepsMonthlyCadence(t *testing.T) {
	anchor := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	weekly, err := GenerateCompetences(anchor, anchor, FrequencyWeekly, 5)
	require.NoError(t, err)
	monthly, err := GenerateCompetences(anchor, anchor, FrequencyMonthly, 5)
	require.NoError(t, err)
	require.Equal(t, monthly, weekly)
}

func TestGenerateCompetencesRejectsUnknownFrequency(t *testing.T) {
	_, err := GenerateCompetences(time.Now(), time.Now(), Frequency("daily"), 12)
	require.ErrorIs(t, err, ErrInvalidFrequency)
}
