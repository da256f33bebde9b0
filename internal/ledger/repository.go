package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// ListFilters narrows fiscal-record listings.
type ListFilters struct {
	Kind     RecordKind
	ClientID uuid.UUID
	Limit    int
	Offset   int
}

// Repository persists fiscal records.
type Repository interface {
	List(ctx context.Context, accountantID int64, filters ListFilters) ([]Record, int, error)
	Get(ctx context.Context, accountantID int64, id uuid.UUID) (Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, accountantID int64, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const recordColumns = `id, accountant_id, client_id, kind, description, amount_cents, payment_date, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.AccountantID, &rec.ClientID, &rec.Kind, &rec.Description, &rec.AmountCents, &rec.PaymentDate, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (r *repository) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Record, int, error) {
	query := `SELECT ` + recordColumns + ` FROM fiscal_records WHERE accountant_id = $1`
	countQuery := `SELECT COUNT(*) FROM fiscal_records WHERE accountant_id = $1`
	args := []any{accountantID}
	countArgs := []any{accountantID}

	appendFilter := func(clause string, value any) {
		args = append(args, value)
		countArgs = append(countArgs, value)
		n := strconv.Itoa(len(args))
		query += ` AND ` + clause + ` $` + n
		countQuery += ` AND ` + clause + ` $` + n
	}
	if filters.Kind != "" {
		appendFilter(`kind =`, string(filters.Kind))
	}
	if filters.ClientID != uuid.Nil {
		appendFilter(`client_id =`, filters.ClientID)
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

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Record, error) {
	const query = `SELECT ` + recordColumns + ` FROM fiscal_records WHERE id = $1 AND accountant_id = $2`
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, accountantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, httpx.ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *repository) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
		INSERT INTO fiscal_records (id, accountant_id, client_id, kind, description, amount_cents, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + recordColumns
	return scanRecord(r.pool.QueryRow(ctx, query, rec.ID, rec.AccountantID, rec.ClientID, rec.Kind, rec.Description, rec.AmountCents, rec.PaymentDate))
}

func (r *repository) Update(ctx context.Context, rec Record) error {
	const query = `
		UPDATE fiscal_records
		SET description = $3, amount_cents = $4, payment_date = $5, updated_at = now()
		WHERE id = $1 AND accountant_id = $2`
	tag, err := r.pool.Exec(ctx, query, rec.ID, rec.AccountantID, rec.Description, rec.AmountCents, rec.PaymentDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, accountantID int64, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fiscal_records WHERE id = $1 AND accountant_id = $2`, id, accountantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
