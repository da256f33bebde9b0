package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/declara-psi/declara-psi/internal/instances"
	"github.com/declara-psi/declara-psi/internal/observability"
)

// RefreshJob advances time-derived instance statuses in storage.
type RefreshJob struct {
	Service *instances.Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewRefreshJob initialises the status refresher handler.
func NewRefreshJob(service *instances.Service, logger *slog.Logger, metrics *observability.Metrics) *RefreshJob {
	return &RefreshJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes one refresher run.
func (j *RefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("refresh: handler not configured")
	}
	logger := j.logger()
	start := time.Now()

	result, err := j.Service.Refresh(ctx)
	if j.Metrics != nil {
		j.Metrics.ObserveJobRun(TaskRefreshStatuses, err)
	}
	if err != nil {
		logger.Error("refresh failed", slog.Any("error", err))
		return err
	}
	if j.Metrics != nil {
		j.Metrics.ObserveTransitions("due_48h", result.MarkedDueSoon)
		j.Metrics.ObserveTransitions("overdue", result.MarkedOverdue)
	}

	logger.Info("completed status refresh",
		slog.Int("marked_due_soon", result.MarkedDueSoon),
		slog.Int("marked_overdue", result.MarkedOverdue),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *RefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRefreshStatuses))
	}
	return slog.Default().With(slog.String("job", TaskRefreshStatuses))
}
