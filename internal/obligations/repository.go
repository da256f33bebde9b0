package obligations

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/declara-psi/declara-psi/internal/platform/db"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// ListFilters narrows obligation listings.
type ListFilters struct {
	Search          string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Repository persists obligation definitions.
type Repository interface {
	List(ctx context.Context, accountantID int64, filters ListFilters) ([]Obligation, int, error)
	Get(ctx context.Context, accountantID int64, id uuid.UUID) (Obligation, error)
	Create(ctx context.Context, o Obligation) (Obligation, error)
	Update(ctx context.Context, o Obligation) error
	Archive(ctx context.Context, accountantID int64, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const obligationColumns = `id, accountant_id, name, frequency, internal_target_day, legal_due_day, notes, archived_at, created_at, updated_at`

func scanObligation(row pgx.Row) (Obligation, error) {
	var o Obligation
	err := row.Scan(&o.ID, &o.AccountantID, &o.Name, &o.Frequency, &o.InternalTargetDay, &o.LegalDueDay, &o.Notes, &o.ArchivedAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *repository) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Obligation, int, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE accountant_id = $1`
	countQuery := `SELECT COUNT(*) FROM obligations WHERE accountant_id = $1`
	args := []any{accountantID}
	countArgs := []any{accountantID}

	if !filters.IncludeArchived {
		query += ` AND archived_at IS NULL`
		countQuery += ` AND archived_at IS NULL`
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND name ILIKE $` + n
		countQuery += ` AND name ILIKE $` + n
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
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

	var out []Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Obligation, error) {
	const query = `SELECT ` + obligationColumns + ` FROM obligations WHERE id = $1 AND accountant_id = $2`
	o, err := scanObligation(r.pool.QueryRow(ctx, query, id, accountantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Obligation{}, httpx.ErrNotFound
		}
		return Obligation{}, err
	}
	return o, nil
}

func (r *repository) Create(ctx context.Context, o Obligation) (Obligation, error) {
	const query = `
		INSERT INTO obligations (id, accountant_id, name, frequency, internal_target_day, legal_due_day, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + obligationColumns
	created, err := scanObligation(r.pool.QueryRow(ctx, query, o.ID, o.AccountantID, o.Name, o.Frequency, o.InternalTargetDay, o.LegalDueDay, o.Notes))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return Obligation{}, httpx.ErrDuplicate
		}
		return Obligation{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, o Obligation) error {
	const query = `
		UPDATE obligations
		SET name = $3, frequency = $4, internal_target_day = $5, legal_due_day = $6, notes = $7, updated_at = now()
		WHERE id = $1 AND accountant_id = $2`
	tag, err := r.pool.Exec(ctx, query, o.ID, o.AccountantID, o.Name, o.Frequency, o.InternalTargetDay, o.LegalDueDay, o.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Archive flags the obligation and deactivates every binding pointing at it.
// History (existing instances) is kept untouched.
func (r *repository) Archive(ctx context.Context, accountantID int64, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE obligations SET archived_at = now(), updated_at = now()
			WHERE id = $1 AND accountant_id = $2 AND archived_at IS NULL`, id, accountantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		_, err = tx.Exec(ctx, `
			UPDATE client_obligations SET is_active = FALSE, updated_at = now()
			WHERE obligation_id = $1 AND is_active`, id)
		return err
	})
}
