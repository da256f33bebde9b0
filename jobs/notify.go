package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/declara-psi/declara-psi/internal/instances"
	"github.com/declara-psi/declara-psi/internal/observability"
)

// NotifyJob emails accountants about instances whose due date is today.
// Each instance is flagged after its email is enqueued so the daily run
// never notifies twice.
type NotifyJob struct {
	Service *instances.Service
	Client  *Client
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewNotifyJob initialises the due-day notifier handler.
func NewNotifyJob(service *instances.Service, client *Client, logger *slog.Logger, metrics *observability.Metrics) *NotifyJob {
	return &NotifyJob{Service: service, Client: client, Logger: logger, Metrics: metrics}
}

// Handle executes one notifier run.
func (j *NotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil || j.Client == nil {
		return errors.New("notify: handler not configured")
	}
	logger := j.logger()
	start := time.Now()

	notices, err := j.Service.DueNotices(ctx)
	if err != nil {
		if j.Metrics != nil {
			j.Metrics.ObserveJobRun(TaskNotifyDueDay, err)
		}
		logger.Error("load due notices", slog.Any("error", err))
		return err
	}

	notified := make([]uuid.UUID, 0, len(notices))
	for _, n := range notices {
		payload := SendEmailPayload{
			To:      n.AccountantEmail,
			Subject: fmt.Sprintf("Obrigação vence hoje: %s (%s)", n.ObligationName, n.ClientName),
			Body: fmt.Sprintf(
				"Olá %s,\n\nA obrigação %s do cliente %s, competência %s, vence hoje (%s).\n",
				n.AccountantName, n.ObligationName, n.ClientName, n.Competence, n.DueDate.Format("02/01/2006"),
			),
		}
		if _, err := j.Client.EnqueueSendEmail(ctx, payload); err != nil {
			logger.Error("enqueue notification",
				slog.String("instance_id", n.InstanceID.String()),
				slog.Any("error", err),
			)
			continue
		}
		notified = append(notified, n.InstanceID)
	}

	if len(notified) > 0 {
		if err := j.Service.MarkNotified(ctx, notified); err != nil {
			if j.Metrics != nil {
				j.Metrics.ObserveJobRun(TaskNotifyDueDay, err)
			}
			logger.Error("mark notified", slog.Any("error", err))
			return err
		}
	}
	if j.Metrics != nil {
		j.Metrics.ObserveJobRun(TaskNotifyDueDay, nil)
	}

	logger.Info("completed due-day notification",
		slog.Int("due_today", len(notices)),
		slog.Int("notified", len(notified)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *NotifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskNotifyDueDay))
	}
	return slog.Default().With(slog.String("job", TaskNotifyDueDay))
}
