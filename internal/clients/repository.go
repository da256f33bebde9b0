package clients

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

// ListFilters narrows client listings.
type ListFilters struct {
	Search          string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Repository persists clients.
type Repository interface {
	List(ctx context.Context, accountantID int64, filters ListFilters) ([]Client, int, error)
	Get(ctx context.Context, accountantID int64, id uuid.UUID) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) error
	Archive(ctx context.Context, accountantID int64, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, accountant_id, name, email, document, phone, notes, archived_at, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.AccountantID, &c.Name, &c.Email, &c.Document, &c.Phone, &c.Notes, &c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Client, int, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE accountant_id = $1`
	countQuery := `SELECT COUNT(*) FROM clients WHERE accountant_id = $1`
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
		query += ` AND (name ILIKE $` + n + ` OR email ILIKE $` + n + ` OR document ILIKE $` + n + `)`
		countQuery += ` AND (name ILIKE $` + n + ` OR email ILIKE $` + n + ` OR document ILIKE $` + n + `)`
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

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND accountant_id = $2`
	c, err := scanClient(r.pool.QueryRow(ctx, query, id, accountantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, httpx.ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Client) (Client, error) {
	const query = `
		INSERT INTO clients (id, accountant_id, name, email, document, phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + clientColumns
	created, err := scanClient(r.pool.QueryRow(ctx, query, c.ID, c.AccountantID, c.Name, c.Email, c.Document, c.Phone, c.Notes))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return Client{}, httpx.ErrDuplicate
		}
		return Client{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, c Client) error {
	const query = `
		UPDATE clients
		SET name = $3, email = $4, document = $5, phone = $6, notes = $7, updated_at = now()
		WHERE id = $1 AND accountant_id = $2`
	tag, err := r.pool.Exec(ctx, query, c.ID, c.AccountantID, c.Name, c.Email, c.Document, c.Phone, c.Notes)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return httpx.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Archive flags the client and deactivates all of its obligation bindings in
// the same transaction, so the generator stops producing instances for it.
func (r *repository) Archive(ctx context.Context, accountantID int64, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE clients SET archived_at = now(), updated_at = now()
			WHERE id = $1 AND accountant_id = $2 AND archived_at IS NULL`, id, accountantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		_, err = tx.Exec(ctx, `
			UPDATE client_obligations SET is_active = FALSE, updated_at = now()
			WHERE client_id = $1 AND is_active`, id)
		return err
	})
}
