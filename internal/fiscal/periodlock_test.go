package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurrentMonthAlwaysAllowed(t *testing.T) {
	for _, day := range []int{1, 9, 10, 15, 28} {
		now := date(2025, time.March, day)
		require.True(t, WithinAllowedPeriod(date(2025, time.March, 1), now), "day %d", day)
		require.True(t, WithinAllowedPeriod(date(2025, time.March, 31), now), "day %d", day)
	}
}

func TestPreviousMonthAllowedBeforeCutoff(t *testing.T) {
	now := date(2025, time.March, 5)
	require.True(t, WithinAllowedPeriod(date(2025, time.February, 20), now))
	require.False(t, WithinAllowedPeriod(date(2025, time.January, 20), now))
}

func TestPreviousMonthLockedFromCutoffDay(t *testing.T) {
	require.False(t, WithinAllowedPeriod(date(2025, time.February, 20), date(2025, time.March, 15)))
	// Day 10 itself is already locked; the window is strictly before.
	require.False(t, WithinAllowedPeriod(date(2025, time.February, 20), date(2025, time.March, 10)))
	require.True(t, WithinAllowedPeriod(date(2025, time.February, 20), date(2025, time.March, 9)))
}

func TestYearRollover(t *testing.T) {
	now := date(2025, time.January, 5)
	require.True(t, WithinAllowedPeriod(date(2024, time.December, 31), now))
	require.False(t, WithinAllowedPeriod(date(2024, time.November, 30), now))
}

func TestFutureMonthsLocked(t *testing.T) {
	now := date(2025, time.March, 5)
	require.False(t, WithinAllowedPeriod(date(2025, time.April, 1), now))
}

func TestCanModifyOnDateNilAlwaysAllowed(t *testing.T) {
	require.True(t, CanModifyOnDate(nil, date(2025, time.March, 15)))

	paid := date(2024, time.June, 1)
	require.False(t, CanModifyOnDate(&paid, date(2025, time.March, 15)))
}

func TestAllowedPeriodDescription(t *testing.T) {
	require.Equal(t, "02/2025 ou 03/2025", AllowedPeriodDescription(date(2025, time.March, 5)))
	require.Equal(t, "03/2025", AllowedPeriodDescription(date(2025, time.March, 15)))
	require.Equal(t, "12/2024 ou 01/2025", AllowedPeriodDescription(date(2025, time.January, 5)))
}
