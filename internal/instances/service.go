package instances

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/fiscal"
)

// Service orchestrates the obligation-instance lifecycle: listing with
// real-time status derivation, the accountant-facing completion action, and
// the two batch passes executed by the worker.
type Service struct {
	repo        Repository
	logger      *slog.Logger
	monthsAhead int
	now         func() time.Time
	onComplete  func(context.Context)
}

// NewService constructs a Service. monthsAhead bounds the generator's
// rolling window.
func NewService(repo Repository, logger *slog.Logger, monthsAhead int) *Service {
	if monthsAhead < 1 {
		monthsAhead = 12
	}
	return &Service{
		repo:        repo,
		logger:      logger,
		monthsAhead: monthsAhead,
		now:         time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithCompletionHook registers a callback invoked after every successful
// completion, used to invalidate cached dashboard summaries.
func (s *Service) WithCompletionHook(fn func(context.Context)) {
	s.onComplete = fn
}

// List returns instances with their effective status computed at read time.
func (s *Service) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Instance, int, error) {
	list, total, err := s.repo.List(ctx, accountantID, filters)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for i := range list {
		list[i].EffectiveStatus = fiscal.EffectiveStatus(list[i].Status, list[i].InternalTargetDate, now)
	}
	return list, total, nil
}

// Get returns one instance with its effective status.
func (s *Service) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Instance, error) {
	in, err := s.repo.Get(ctx, accountantID, id)
	if err != nil {
		return Instance{}, err
	}
	in.EffectiveStatus = fiscal.EffectiveStatus(in.Status, in.InternalTargetDate, s.now())
	return in, nil
}

// Complete marks an instance done, picking on-time or late against the due
// date. Terminal instances reject a second completion.
func (s *Service) Complete(ctx context.Context, accountantID int64, id uuid.UUID, completedAt time.Time) (Instance, error) {
	in, err := s.repo.Get(ctx, accountantID, id)
	if err != nil {
		return Instance{}, err
	}
	if in.Status.Terminal() {
		return Instance{}, ErrAlreadyCompleted
	}
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	status := fiscal.CompletionStatus(in.DueDate, completedAt)
	if err := s.repo.Complete(ctx, accountantID, id, status, completedAt); err != nil {
		return Instance{}, err
	}
	in.Status = status
	in.EffectiveStatus = status
	in.CompletedAt = &completedAt
	if s.onComplete != nil {
		s.onComplete(ctx)
	}
	return in, nil
}

// Generate runs the instance generator over every active binding: for each
// one it computes the competence window anchored at max(binding creation,
// now), derives due and target dates, skips competences already past due,
// and bulk-inserts the remainder. The storage layer's unique constraint
// makes the whole run idempotent. A binding whose dates cannot be derived is
// logged and counted, never aborts the run.
func (s *Service) Generate(ctx context.Context) (GenerateResult, error) {
	now := s.now()
	bindings, err := s.repo.ActiveBindings(ctx)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("instances: load bindings: %w", err)
	}

	result := GenerateResult{BindingsSeen: len(bindings)}
	var batch []Instance
	for _, b := range bindings {
		built, err := s.buildForBinding(b, now)
		if err != nil {
			result.Failed++
			s.logger.Error("generate instances for binding",
				slog.String("client_id", b.ClientID.String()),
				slog.String("obligation_id", b.ObligationID.String()),
				slog.Any("error", err))
			continue
		}
		batch = append(batch, built...)
	}

	created, err := s.repo.InsertBatch(ctx, batch)
	result.Created = created
	if err != nil {
		return result, fmt.Errorf("instances: insert batch: %w", err)
	}
	return result, nil
}

func (s *Service) buildForBinding(b ActiveBinding, now time.Time) ([]Instance, error) {
	competences, err := fiscal.GenerateCompetences(b.BindingCreatedAt, now, b.Frequency, s.monthsAhead)
	if err != nil {
		return nil, err
	}

	today := fiscal.DateOnly(now)
	out := make([]Instance, 0, len(competences))
	for _, c := range competences {
		due, err := fiscal.DueDate(c, b.LegalDueDay)
		if err != nil {
			return nil, err
		}
		// Never instantiate a competence whose due date is already past.
		if due.Before(today) {
			continue
		}
		target, err := fiscal.InternalTargetDate(c, b.InternalTargetDay)
		if err != nil {
			return nil, err
		}
		out = append(out, Instance{
			ID:                 uuid.New(),
			AccountantID:       b.AccountantID,
			ClientID:           b.ClientID,
			ObligationID:       b.ObligationID,
			Competence:         c.String(),
			DueDate:            due,
			InternalTargetDate: target,
			Status:             fiscal.StatusPending,
		})
	}
	return out, nil
}

// Refresh advances stored statuses as time passes. The due-soon pass runs
// before the overdue pass; their conditions are disjoint (due > now versus
// due < now) so ordering cannot change the final state, but keeping this
// order means a re-run after a partial failure never parks an overdue
// instance at due_48h.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	now := s.now()
	var result RefreshResult

	dueSoon, err := s.repo.MarkDueSoon(ctx, now)
	if err != nil {
		return result, fmt.Errorf("instances: mark due soon: %w", err)
	}
	result.MarkedDueSoon = dueSoon

	overdue, err := s.repo.MarkOverdue(ctx, now)
	if err != nil {
		return result, fmt.Errorf("instances: mark overdue: %w", err)
	}
	result.MarkedOverdue = overdue
	return result, nil
}

// DueNotices lists the instances due today still waiting for their due-day
// notification.
func (s *Service) DueNotices(ctx context.Context) ([]DueNotice, error) {
	return s.repo.DueForNotification(ctx, s.now())
}

// MarkNotified flags instances whose due-day notification has been sent.
func (s *Service) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	return s.repo.MarkNotified(ctx, ids)
}
