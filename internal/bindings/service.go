package bindings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// Service applies business rules over bindings.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Binding, int, error) {
	return s.repo.List(ctx, accountantID, filters)
}

func (s *Service) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Binding, error) {
	return s.repo.Get(ctx, accountantID, id)
}

// Create links a client to an obligation. The single-active invariant lives
// in the storage layer; a second active binding for the same pair surfaces
// as a duplicate.
func (s *Service) Create(ctx context.Context, b Binding) (Binding, error) {
	if b.ClientID == uuid.Nil {
		return Binding{}, fmt.Errorf("%w: client id required", httpx.ErrValidation)
	}
	if b.ObligationID == uuid.Nil {
		return Binding{}, fmt.Errorf("%w: obligation id required", httpx.ErrValidation)
	}
	b.ID = uuid.New()
	return s.repo.Create(ctx, b)
}

func (s *Service) UpdateParams(ctx context.Context, accountantID int64, id uuid.UUID, params map[string]any) error {
	return s.repo.UpdateParams(ctx, accountantID, id, params)
}

// Deactivate archives the binding without deleting history.
func (s *Service) Deactivate(ctx context.Context, accountantID int64, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, accountantID, id)
}
