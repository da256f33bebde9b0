package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// Service applies business rules over client records.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Client, int, error) {
	return s.repo.List(ctx, accountantID, filters)
}

func (s *Service) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Client, error) {
	return s.repo.Get(ctx, accountantID, id)
}

func (s *Service) Create(ctx context.Context, c Client) (Client, error) {
	if err := validate(c); err != nil {
		return Client{}, err
	}
	c.ID = uuid.New()
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c Client) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: client id required", httpx.ErrValidation)
	}
	if err := validate(c); err != nil {
		return err
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Archive(ctx context.Context, accountantID int64, id uuid.UUID) error {
	return s.repo.Archive(ctx, accountantID, id)
}

func validate(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: email is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(c.Document) == "" {
		return fmt.Errorf("%w: document is required", httpx.ErrValidation)
	}
	return nil
}
