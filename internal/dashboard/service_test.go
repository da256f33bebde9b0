package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type mockRepo struct {
	counts        StatusCounts
	countsCalls   int
	upcoming      []UpcomingDeadline
	upcomingCalls int
}

func (m *mockRepo) StatusCounts(ctx context.Context, accountantID int64, now time.Time) (StatusCounts, error) {
	m.countsCalls++
	return m.counts, nil
}

func (m *mockRepo) UpcomingDeadlines(ctx context.Context, accountantID int64, now time.Time, limit int) ([]UpcomingDeadline, error) {
	m.upcomingCalls++
	return m.upcoming, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) })
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestGetSummaryCaches(t *testing.T) {
	repo := &mockRepo{
		counts: StatusCounts{Pending: 8, DueSoon: 2, Overdue: 1, OnTimeDone: 5, LateDone: 3},
		upcoming: []UpcomingDeadline{
			{
				InstanceID:     uuid.New(),
				Competence:     "02/2025",
				DueDate:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
				ClientName:     "Ana Souza",
				ObligationName: "DAS",
			},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	summary, err := svc.GetSummary(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.StatusCounts.Pending != 8 {
		t.Fatalf("expected 8 pending, got %d", summary.StatusCounts.Pending)
	}
	if len(summary.Upcoming) != 1 {
		t.Fatalf("expected 1 upcoming deadline, got %d", len(summary.Upcoming))
	}
	if repo.countsCalls != 1 || repo.upcomingCalls != 1 {
		t.Fatalf("expected 1 repo call each, got %d/%d", repo.countsCalls, repo.upcomingCalls)
	}

	// Second call should hit cache.
	if _, err := svc.GetSummary(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.countsCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.countsCalls)
	}

	// Invalidation should trigger a rebuild.
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	repo.counts.Overdue = 4
	summary, err = svc.GetSummary(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.StatusCounts.Overdue != 4 {
		t.Fatalf("expected refreshed overdue count 4, got %d", summary.StatusCounts.Overdue)
	}
	if repo.countsCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.countsCalls)
	}
}

func TestGetSummaryScopesByAccountant(t *testing.T) {
	repo := &mockRepo{counts: StatusCounts{Pending: 1}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.GetSummary(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetSummary(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.countsCalls != 2 {
		t.Fatalf("expected a build per accountant, got %d", repo.countsCalls)
	}
}

func TestGetSummaryWithoutCache(t *testing.T) {
	repo := &mockRepo{counts: StatusCounts{Pending: 3}}
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) })

	summary, err := svc.GetSummary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.StatusCounts.Pending != 3 {
		t.Fatalf("expected 3 pending, got %d", summary.StatusCounts.Pending)
	}
	if summary.Upcoming == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
