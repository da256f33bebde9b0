package obligations

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// Service applies business rules over obligation definitions.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Obligation, int, error) {
	return s.repo.List(ctx, accountantID, filters)
}

func (s *Service) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Obligation, error) {
	return s.repo.Get(ctx, accountantID, id)
}

func (s *Service) Create(ctx context.Context, o Obligation) (Obligation, error) {
	if err := validate(o); err != nil {
		return Obligation{}, err
	}
	o.ID = uuid.New()
	return s.repo.Create(ctx, o)
}

func (s *Service) Update(ctx context.Context, o Obligation) error {
	if o.ID == uuid.Nil {
		return fmt.Errorf("%w: obligation id required", httpx.ErrValidation)
	}
	if err := validate(o); err != nil {
		return err
	}
	return s.repo.Update(ctx, o)
}

// Archive deactivates the obligation and all its bindings. Instances already
// generated stay in history.
func (s *Service) Archive(ctx context.Context, accountantID int64, id uuid.UUID) error {
	return s.repo.Archive(ctx, accountantID, id)
}

func validate(o Obligation) error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if !o.Frequency.Valid() {
		return fmt.Errorf("%w: frequency must be weekly, monthly or annual", httpx.ErrValidation)
	}
	if o.InternalTargetDay < 1 || o.InternalTargetDay > 31 {
		return fmt.Errorf("%w: internal target day must be between 1 and 31", httpx.ErrValidation)
	}
	if o.LegalDueDay != nil && (*o.LegalDueDay < 1 || *o.LegalDueDay > 31) {
		return fmt.Errorf("%w: legal due day must be between 1 and 31", httpx.ErrValidation)
	}
	return nil
}
