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

// GenerateJob materialises obligation instances for every active binding.
type GenerateJob struct {
	Service *instances.Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewGenerateJob initialises the generator handler.
func NewGenerateJob(service *instances.Service, logger *slog.Logger, metrics *observability.Metrics) *GenerateJob {
	return &GenerateJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes one generator run.
func (j *GenerateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("generate: handler not configured")
	}
	logger := j.logger()
	logger.Info("starting instance generation")
	start := time.Now()

	result, err := j.Service.Generate(ctx)
	if j.Metrics != nil {
		j.Metrics.ObserveJobRun(TaskGenerateInstances, err)
	}
	if err != nil {
		logger.Error("generation failed", slog.Any("error", err))
		return err
	}
	if j.Metrics != nil {
		j.Metrics.ObserveTransitions("created", result.Created)
	}

	logger.Info("completed instance generation",
		slog.Int("bindings", result.BindingsSeen),
		slog.Int("created", result.Created),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *GenerateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGenerateInstances))
	}
	return slog.Default().With(slog.String("job", TaskGenerateInstances))
}
