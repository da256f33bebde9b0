package bindings

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/declara-psi/declara-psi/internal/platform/db"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// uqActiveBinding is the partial unique index enforcing one active binding
// per (client, obligation) pair.
const uqActiveBinding = "uq_client_obligation_active"

// ListFilters narrows binding listings.
type ListFilters struct {
	ClientID     uuid.UUID
	ObligationID uuid.UUID
	OnlyActive   bool
	Limit        int
	Offset       int
}

// Repository persists client-obligation bindings.
type Repository interface {
	List(ctx context.Context, accountantID int64, filters ListFilters) ([]Binding, int, error)
	Get(ctx context.Context, accountantID int64, id uuid.UUID) (Binding, error)
	Create(ctx context.Context, b Binding) (Binding, error)
	UpdateParams(ctx context.Context, accountantID int64, id uuid.UUID, params map[string]any) error
	Deactivate(ctx context.Context, accountantID int64, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const bindingColumns = `id, accountant_id, client_id, obligation_id, is_active, params, created_at, updated_at`

func scanBinding(row pgx.Row) (Binding, error) {
	var b Binding
	var params []byte
	err := row.Scan(&b.ID, &b.AccountantID, &b.ClientID, &b.ObligationID, &b.IsActive, &params, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Binding{}, err
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params, &b.Params)
	}
	return b, nil
}

func (r *repository) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Binding, int, error) {
	query := `SELECT ` + bindingColumns + ` FROM client_obligations WHERE accountant_id = $1`
	countQuery := `SELECT COUNT(*) FROM client_obligations WHERE accountant_id = $1`
	args := []any{accountantID}
	countArgs := []any{accountantID}

	appendFilter := func(clause string, value any) {
		args = append(args, value)
		countArgs = append(countArgs, value)
		n := strconv.Itoa(len(args))
		query += ` AND ` + clause + ` $` + n
		countQuery += ` AND ` + clause + ` $` + n
	}
	if filters.ClientID != uuid.Nil {
		appendFilter(`client_id =`, filters.ClientID)
	}
	if filters.ObligationID != uuid.Nil {
		appendFilter(`obligation_id =`, filters.ObligationID)
	}
	if filters.OnlyActive {
		query += ` AND is_active`
		countQuery += ` AND is_active`
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, filters.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Binding, error) {
	const query = `SELECT ` + bindingColumns + ` FROM client_obligations WHERE id = $1 AND accountant_id = $2`
	b, err := scanBinding(r.pool.QueryRow(ctx, query, id, accountantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Binding{}, httpx.ErrNotFound
		}
		return Binding{}, err
	}
	return b, nil
}

func (r *repository) Create(ctx context.Context, b Binding) (Binding, error) {
	params, err := json.Marshal(b.Params)
	if err != nil {
		return Binding{}, err
	}
	if b.Params == nil {
		params = []byte(`{}`)
	}
	const query = `
		INSERT INTO client_obligations (id, accountant_id, client_id, obligation_id, is_active, params)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		RETURNING ` + bindingColumns
	created, err := scanBinding(r.pool.QueryRow(ctx, query, b.ID, b.AccountantID, b.ClientID, b.ObligationID, params))
	if err != nil {
		if db.IsUniqueViolation(err, uqActiveBinding) {
			return Binding{}, httpx.ErrDuplicate
		}
		return Binding{}, err
	}
	return created, nil
}

func (r *repository) UpdateParams(ctx context.Context, accountantID int64, id uuid.UUID, params map[string]any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	if params == nil {
		raw = []byte(`{}`)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE client_obligations SET params = $3, updated_at = now()
		WHERE id = $1 AND accountant_id = $2`, id, accountantID, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, accountantID int64, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE client_obligations SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND accountant_id = $2 AND is_active`, id, accountantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
