package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/declara-psi/declara-psi/internal/app"
	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/bindings"
	"github.com/declara-psi/declara-psi/internal/clients"
	"github.com/declara-psi/declara-psi/internal/dashboard"
	"github.com/declara-psi/declara-psi/internal/instances"
	"github.com/declara-psi/declara-psi/internal/ledger"
	"github.com/declara-psi/declara-psi/internal/obligations"
	"github.com/declara-psi/declara-psi/internal/observability"
	"github.com/declara-psi/declara-psi/internal/platform/cache"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)

	clientsService := clients.NewService(clients.NewRepository(pool))
	clientsHandler := clients.NewHandler(logger, clientsService)

	obligationsService := obligations.NewService(obligations.NewRepository(pool))
	obligationsHandler := obligations.NewHandler(logger, obligationsService)

	bindingsService := bindings.NewService(bindings.NewRepository(pool))
	bindingsHandler := bindings.NewHandler(logger, bindingsService)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	instancesService := instances.NewService(instances.NewRepository(pool), logger, cfg.GenerateMonthsAhead)
	instancesService.WithCompletionHook(func(ctx context.Context) {
		if err := dashboardService.Invalidate(ctx); err != nil {
			logger.Warn("dashboard invalidate", slog.Any("error", err))
		}
	})
	instancesHandler := instances.NewHandler(logger, instancesService)

	ledgerService := ledger.NewService(ledger.NewRepository(pool))
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthService:        authService,
		AuthHandler:        authHandler,
		ClientsHandler:     clientsHandler,
		ObligationsHandler: obligationsHandler,
		BindingsHandler:    bindingsHandler,
		InstancesHandler:   instancesHandler,
		LedgerHandler:      ledgerHandler,
		DashboardHandler:   dashboardHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
