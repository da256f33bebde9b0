package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Accountant, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an accountant by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Accountant, error) {
	const query = `
		SELECT id, name, email, password_hash, is_active, created_at, updated_at
		FROM accountants
		WHERE email = $1`
	var a Accountant
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ Repository = (*PGRepository)(nil)
