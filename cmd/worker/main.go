package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/declara-psi/declara-psi/internal/app"
	"github.com/declara-psi/declara-psi/internal/instances"
	"github.com/declara-psi/declara-psi/internal/observability"
	"github.com/declara-psi/declara-psi/internal/platform/db"
	"github.com/declara-psi/declara-psi/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	instancesService := instances.NewService(instances.NewRepository(pool), logger, cfg.GenerateMonthsAhead)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	mailer := jobs.NewMailer(fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort), cfg.SMTPFrom, logger)
	generateJob := jobs.NewGenerateJob(instancesService, logger, metrics)
	refreshJob := jobs.NewRefreshJob(instancesService, logger, metrics)
	notifyJob := jobs.NewNotifyJob(instancesService, client, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskGenerateInstances, Handler: generateJob.Handle},
			{Type: jobs.TaskRefreshStatuses, Handler: refreshJob.Handle},
			{Type: jobs.TaskNotifyDueDay, Handler: notifyJob.Handle},
			{Type: jobs.TaskSendEmail, Handler: mailer.HandleSendEmail},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: jobs.NewGenerateInstancesTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 * * * *", Task: jobs.NewRefreshStatusesTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 7 * * *", Task: jobs.NewNotifyDueDayTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
