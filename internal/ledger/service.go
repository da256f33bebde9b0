package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/fiscal"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// Service gates fiscal-record mutations behind the period-lock policy. The
// gate is a pre-check evaluated against the wall clock on every attempt,
// never a persisted lock record.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Record, int, error) {
	return s.repo.List(ctx, accountantID, filters)
}

func (s *Service) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Record, error) {
	return s.repo.Get(ctx, accountantID, id)
}

func (s *Service) Create(ctx context.Context, rec Record) (Record, error) {
	if err := s.validate(rec); err != nil {
		return Record{}, err
	}
	if err := s.guard(rec.PaymentDate); err != nil {
		return Record{}, err
	}
	rec.ID = uuid.New()
	return s.repo.Create(ctx, rec)
}

// Update rejects changes when either the stored payment date or the new one
// falls outside the allowed period.
func (s *Service) Update(ctx context.Context, rec Record) error {
	if err := s.validate(rec); err != nil {
		return err
	}
	current, err := s.repo.Get(ctx, rec.AccountantID, rec.ID)
	if err != nil {
		return err
	}
	if err := s.guard(current.PaymentDate); err != nil {
		return err
	}
	if err := s.guard(rec.PaymentDate); err != nil {
		return err
	}
	rec.Kind = current.Kind
	return s.repo.Update(ctx, rec)
}

func (s *Service) Delete(ctx context.Context, accountantID int64, id uuid.UUID) error {
	current, err := s.repo.Get(ctx, accountantID, id)
	if err != nil {
		return err
	}
	if err := s.guard(current.PaymentDate); err != nil {
		return err
	}
	return s.repo.Delete(ctx, accountantID, id)
}

// MarkPaid sets the payment date on a charge, subject to the period lock.
func (s *Service) MarkPaid(ctx context.Context, accountantID int64, id uuid.UUID, paymentDate time.Time) (Record, error) {
	rec, err := s.repo.Get(ctx, accountantID, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Kind != KindCharge {
		return Record{}, fmt.Errorf("%w: only charges can be marked as paid", httpx.ErrValidation)
	}
	if err := s.guard(&paymentDate); err != nil {
		return Record{}, err
	}
	rec.PaymentDate = &paymentDate
	if err := s.repo.Update(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// PeriodCheck reports whether a candidate date is currently editable,
// together with the human-readable allowed window.
func (s *Service) PeriodCheck(date time.Time) (bool, string) {
	now := s.now()
	return fiscal.WithinAllowedPeriod(date, now), fiscal.AllowedPeriodDescription(now)
}

// AllowedPeriod returns the description of the currently open competences.
func (s *Service) AllowedPeriod() string {
	return fiscal.AllowedPeriodDescription(s.now())
}

func (s *Service) guard(paymentDate *time.Time) error {
	if fiscal.CanModifyOnDate(paymentDate, s.now()) {
		return nil
	}
	return fmt.Errorf("%w: %s", httpx.ErrPeriodLocked, fiscal.PeriodLockMessage)
}

func (s *Service) validate(rec Record) error {
	if !rec.Kind.Valid() {
		return fmt.Errorf("%w: kind must be charge or expense", httpx.ErrValidation)
	}
	if strings.TrimSpace(rec.Description) == "" {
		return fmt.Errorf("%w: description is required", httpx.ErrValidation)
	}
	if rec.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	return nil
}
