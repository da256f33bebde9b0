package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEffectiveStatusPending(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	target := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	require.Equal(t, StatusPending, EffectiveStatus(StatusPending, target, now))
}

func TestEffectiveStatusDueSoonWithin48h(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	target := now.Add(30 * time.Hour)
	require.Equal(t, StatusDueSoon, EffectiveStatus(StatusPending, target, now))
}

func TestEffectiveStatusOverdueWhenTargetYesterday(t *testing.T) {
	now := time.Date(2025, time.March, 2, 8, 0, 0, 0, time.UTC)
	target := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, StatusOverdue, EffectiveStatus(StatusPending, target, now))
}

func TestEffectiveStatusOverridesStaleStoredValue(t *testing.T) {
	// The refresher may not have run yet; the stored status is ignored for
	// non-terminal states.
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	target := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, StatusOverdue, EffectiveStatus(StatusDueSoon, target, now))
}

func TestEffectiveStatusTerminalNeverRecomputed(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	target := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, StatusOnTimeDone, EffectiveStatus(StatusOnTimeDone, target, now))
	require.Equal(t, StatusLateDone, EffectiveStatus(StatusLateDone, target, now))
}

func TestCompletionStatus(t *testing.T) {
	due := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)

	require.Equal(t, StatusOnTimeDone, CompletionStatus(due, due))
	require.Equal(t, StatusOnTimeDone, CompletionStatus(due, due.AddDate(0, 0, -3)))
	// Same calendar day but later hours still counts as on time.
	require.Equal(t, StatusOnTimeDone, CompletionStatus(due, due.Add(20*time.Hour)))
	require.Equal(t, StatusLateDone, CompletionStatus(due, due.AddDate(0, 0, 1)))
}

func TestStatusTable(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusDueSoon, StatusOverdue, StatusOnTimeDone, StatusLateDone} {
		require.True(t, s.Valid())
		require.NotEmpty(t, s.Info().Label)
	}
	require.False(t, Status("done").Valid())
	require.True(t, StatusOnTimeDone.Terminal())
	require.False(t, StatusOverdue.Terminal())
}
