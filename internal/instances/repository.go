package instances

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/declara-psi/declara-psi/internal/fiscal"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// ListFilters narrows instance listings.
type ListFilters struct {
	ClientID   uuid.UUID
	Competence string
	Status     fiscal.Status
	Limit      int
	Offset     int
}

// Repository persists obligation instances. The uniqueness of
// (client, obligation, competence) is enforced by the storage layer, so
// generator runs may race freely; duplicate inserts collapse to no-ops.
type Repository interface {
	List(ctx context.Context, accountantID int64, filters ListFilters) ([]Instance, int, error)
	Get(ctx context.Context, accountantID int64, id uuid.UUID) (Instance, error)
	Complete(ctx context.Context, accountantID int64, id uuid.UUID, status fiscal.Status, completedAt time.Time) error

	ActiveBindings(ctx context.Context) ([]ActiveBinding, error)
	InsertBatch(ctx context.Context, batch []Instance) (int, error)
	MarkDueSoon(ctx context.Context, now time.Time) (int, error)
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
	DueForNotification(ctx context.Context, now time.Time) ([]DueNotice, error)
	MarkNotified(ctx context.Context, ids []uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const instanceColumns = `id, accountant_id, client_id, obligation_id, competence, due_date, internal_target_date, status, completed_at, notified_due_day, created_at, updated_at`

func scanInstance(row pgx.Row) (Instance, error) {
	var in Instance
	err := row.Scan(&in.ID, &in.AccountantID, &in.ClientID, &in.ObligationID, &in.Competence, &in.DueDate, &in.InternalTargetDate, &in.Status, &in.CompletedAt, &in.NotifiedDueDay, &in.CreatedAt, &in.UpdatedAt)
	return in, err
}

func (r *repository) List(ctx context.Context, accountantID int64, filters ListFilters) ([]Instance, int, error) {
	query := `SELECT ` + instanceColumns + ` FROM obligation_instances WHERE accountant_id = $1`
	countQuery := `SELECT COUNT(*) FROM obligation_instances WHERE accountant_id = $1`
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
	if filters.Competence != "" {
		appendFilter(`competence =`, filters.Competence)
	}
	if filters.Status != "" {
		appendFilter(`status =`, string(filters.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY due_date ASC, competence ASC`
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

	var out []Instance
	for rows.Next() {
		in, err := scanInstance(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, accountantID int64, id uuid.UUID) (Instance, error) {
	const query = `SELECT ` + instanceColumns + ` FROM obligation_instances WHERE id = $1 AND accountant_id = $2`
	in, err := scanInstance(r.pool.QueryRow(ctx, query, id, accountantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Instance{}, httpx.ErrNotFound
		}
		return Instance{}, err
	}
	return in, nil
}

// Complete sets a terminal status. The status guard in the WHERE clause
// keeps terminal states immutable even under concurrent completion calls.
func (r *repository) Complete(ctx context.Context, accountantID int64, id uuid.UUID, status fiscal.Status, completedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE obligation_instances
		SET status = $3, completed_at = $4, updated_at = now()
		WHERE id = $1 AND accountant_id = $2 AND status NOT IN ('on_time_done', 'late_done')`,
		id, accountantID, string(status), completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCompleted
	}
	return nil
}

// ActiveBindings lists every active binding across all accountants, joined
// with the obligation's recurrence rules. Archived obligations and clients
// are excluded.
func (r *repository) ActiveBindings(ctx context.Context) ([]ActiveBinding, error) {
	const query = `
		SELECT b.accountant_id, b.client_id, b.obligation_id, b.created_at,
		       o.frequency, o.internal_target_day, o.legal_due_day
		FROM client_obligations b
		JOIN obligations o ON o.id = b.obligation_id
		JOIN clients c ON c.id = b.client_id
		WHERE b.is_active AND o.archived_at IS NULL AND c.archived_at IS NULL
		ORDER BY b.created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveBinding
	for rows.Next() {
		var b ActiveBinding
		if err := rows.Scan(&b.AccountantID, &b.ClientID, &b.ObligationID, &b.BindingCreatedAt, &b.Frequency, &b.InternalTargetDay, &b.LegalDueDay); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertBatch bulk-inserts generated instances. ON CONFLICT DO NOTHING makes
// repeated runs safe to retry wholesale; the returned count reflects only
// rows actually created.
func (r *repository) InsertBatch(ctx context.Context, batch []Instance) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	const insert = `
		INSERT INTO obligation_instances
			(id, accountant_id, client_id, obligation_id, competence, due_date, internal_target_date, status, notified_due_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		ON CONFLICT (client_id, obligation_id, competence) DO NOTHING`

	var queued pgx.Batch
	for _, in := range batch {
		queued.Queue(insert, in.ID, in.AccountantID, in.ClientID, in.ObligationID, in.Competence, in.DueDate, in.InternalTargetDate, string(in.Status))
	}

	results := r.pool.SendBatch(ctx, &queued)
	defer func() {
		_ = results.Close()
	}()

	created := 0
	for range batch {
		tag, err := results.Exec()
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// MarkDueSoon advances pending instances whose due date falls inside the
// 48-hour window. Strictly after now: a due date equal to now belongs to the
// overdue pass, keeping the two windows disjoint.
func (r *repository) MarkDueSoon(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE obligation_instances
		SET status = 'due_48h', updated_at = now()
		WHERE status = 'pending' AND due_date > $1 AND due_date <= $2`,
		now, now.Add(48*time.Hour))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// MarkOverdue advances pending and due-soon instances whose due date has
// passed.
func (r *repository) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE obligation_instances
		SET status = 'overdue', updated_at = now()
		WHERE status IN ('pending', 'due_48h') AND due_date < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DueForNotification lists instances due on the current date whose
// accountant has not been notified yet.
func (r *repository) DueForNotification(ctx context.Context, now time.Time) ([]DueNotice, error) {
	const query = `
		SELECT i.id, a.email, a.name, c.name, o.name, i.competence, i.due_date
		FROM obligation_instances i
		JOIN accountants a ON a.id = i.accountant_id
		JOIN clients c ON c.id = i.client_id
		JOIN obligations o ON o.id = i.obligation_id
		WHERE i.due_date = $1 AND NOT i.notified_due_day
		  AND i.status NOT IN ('on_time_done', 'late_done')`
	rows, err := r.pool.Query(ctx, query, fiscal.DateOnly(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DueNotice
	for rows.Next() {
		var n DueNotice
		if err := rows.Scan(&n.InstanceID, &n.AccountantEmail, &n.AccountantName, &n.ClientName, &n.ObligationName, &n.Competence, &n.DueDate); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repository) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE obligation_instances SET notified_due_day = TRUE, updated_at = now()
		WHERE id = ANY($1)`, ids)
	return err
}
