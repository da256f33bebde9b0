package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const upcomingLimit = 5

// StatusCounts holds the number of instances per effective status.
type StatusCounts struct {
	Pending    int `json:"pending"`
	DueSoon    int `json:"due_48h"`
	Overdue    int `json:"overdue"`
	OnTimeDone int `json:"on_time_done"`
	LateDone   int `json:"late_done"`
}

// UpcomingDeadline is one row of the next-deadlines panel.
type UpcomingDeadline struct {
	InstanceID     uuid.UUID `json:"instance_id"`
	Competence     string    `json:"competence"`
	DueDate        time.Time `json:"due_date"`
	ClientName     string    `json:"client_name"`
	ObligationName string    `json:"obligation_name"`
}

// Summary is the aggregated dashboard payload.
type Summary struct {
	StatusCounts StatusCounts       `json:"status_counts"`
	Upcoming     []UpcomingDeadline `json:"upcoming"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Service assembles dashboard summaries, caching them per accountant and
// collapsing concurrent builds for the same key.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GetSummary returns the cached summary for an accountant, building it on
// a miss. Both counter queries run in parallel.
func (s *Service) GetSummary(ctx context.Context, accountantID int64) (Summary, error) {
	now := s.now()
	key, err := s.cache.BuildKey(ctx, summaryKey(accountantID, now.Format(time.DateOnly)))
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard: build cache key: %w", err)
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var summary Summary
		err := s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
			return s.build(ctx, accountantID, now)
		})
		return summary, err
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Invalidate bumps the cache version so the next read rebuilds.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) build(ctx context.Context, accountantID int64, now time.Time) (Summary, error) {
	summary := Summary{GeneratedAt: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.StatusCounts(ctx, accountantID, now)
		if err != nil {
			return fmt.Errorf("dashboard: status counts: %w", err)
		}
		summary.StatusCounts = counts
		return nil
	})
	g.Go(func() error {
		upcoming, err := s.repo.UpcomingDeadlines(ctx, accountantID, now, upcomingLimit)
		if err != nil {
			return fmt.Errorf("dashboard: upcoming deadlines: %w", err)
		}
		summary.Upcoming = upcoming
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if summary.Upcoming == nil {
		summary.Upcoming = []UpcomingDeadline{}
	}
	return summary, nil
}
