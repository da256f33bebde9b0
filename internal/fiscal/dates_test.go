package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDueDateFallbackLastDayOfFollowingMonth(t *testing.T) {
	cases := []struct {
		competence string
		want       time.Time
	}{
		{"01/2025", time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"01/2024", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)}, // leap year
		{"12/2024", time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{"03/2025", time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		c, err := ParseCompetence(tc.competence)
		require.NoError(t, err)
		due, err := DueDate(c, nil)
		require.NoError(t, err)
		require.Equal(t, tc.want, due, "competence %s", tc.competence)
	}
}

func TestDueDateWithLegalDay(t *testing.T) {
	c, _ := ParseCompetence("01/2025")
	due, err := DueDate(c, intPtr(15))
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), due)
}

func TestDueDateClampsShortMonths(t *testing.T) {
	// Day 31 against February clamps to the month's last day instead of
	// rolling into March.
	c, _ := ParseCompetence("01/2025")
	due, err := DueDate(c, intPtr(31))
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), due)
}

func TestDueDateRejectsOutOfRangeDay(t *testing.T) {
	c, _ := ParseCompetence("01/2025")
	_, err := DueDate(c, intPtr(0))
	require.ErrorIs(t, err, ErrInvalidDay)
	_, err = DueDate(c, intPtr(32))
	require.ErrorIs(t, err, ErrInvalidDay)
}

func TestInternalTargetDateMonthAfterCompetence(t *testing.T) {
	c, _ := ParseCompetence("01/2025")
	target, err := InternalTargetDate(c, 10)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), target)
}

func TestInternalTargetDateClamps(t *testing.T) {
	c, _ := ParseCompetence("01/2025")
	target, err := InternalTargetDate(c, 30)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), target)
}

func TestInternalTargetDateRejectsOutOfRangeDay(t *testing.T) {
	c, _ := ParseCompetence("01/2025")
	_, err := InternalTargetDate(c, 40)
	require.ErrorIs(t, err, ErrInvalidDay)
}
