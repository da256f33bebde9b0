package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates obligation-instance counters for one accountant.
type Repository interface {
	StatusCounts(ctx context.Context, accountantID int64, now time.Time) (StatusCounts, error)
	UpcomingDeadlines(ctx context.Context, accountantID int64, now time.Time, limit int) ([]UpcomingDeadline, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// StatusCounts buckets every instance into its effective status. Terminal
// statuses are read as stored; the rest are derived from the internal
// target date against the reference time, mirroring the read-path
// derivation in the instances package.
func (r *repository) StatusCounts(ctx context.Context, accountantID int64, now time.Time) (StatusCounts, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE status NOT IN ('on_time_done', 'late_done')
				AND internal_target_date::date >= $2::date
				AND NOT (internal_target_date >= $2 AND internal_target_date <= $2 + interval '48 hours')),
			COUNT(*) FILTER (WHERE status NOT IN ('on_time_done', 'late_done')
				AND internal_target_date::date >= $2::date
				AND internal_target_date >= $2 AND internal_target_date <= $2 + interval '48 hours'),
			COUNT(*) FILTER (WHERE status NOT IN ('on_time_done', 'late_done')
				AND internal_target_date::date < $2::date),
			COUNT(*) FILTER (WHERE status = 'on_time_done'),
			COUNT(*) FILTER (WHERE status = 'late_done')
		FROM obligation_instances
		WHERE accountant_id = $1`
	var counts StatusCounts
	err := r.pool.QueryRow(ctx, query, accountantID, now).Scan(
		&counts.Pending, &counts.DueSoon, &counts.Overdue, &counts.OnTimeDone, &counts.LateDone,
	)
	return counts, err
}

func (r *repository) UpcomingDeadlines(ctx context.Context, accountantID int64, now time.Time, limit int) ([]UpcomingDeadline, error) {
	const query = `
		SELECT i.id, i.competence, i.due_date, c.name, o.name
		FROM obligation_instances i
		JOIN clients c ON c.id = i.client_id
		JOIN obligations o ON o.id = i.obligation_id
		WHERE i.accountant_id = $1
		  AND i.status NOT IN ('on_time_done', 'late_done')
		  AND i.due_date >= $2::date
		ORDER BY i.due_date, c.name
		LIMIT $3`
	rows, err := r.pool.Query(ctx, query, accountantID, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UpcomingDeadline
	for rows.Next() {
		var d UpcomingDeadline
		if err := rows.Scan(&d.InstanceID, &d.Competence, &d.DueDate, &d.ClientName, &d.ObligationName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
