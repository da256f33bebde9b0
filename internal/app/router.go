package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/bindings"
	"github.com/declara-psi/declara-psi/internal/clients"
	"github.com/declara-psi/declara-psi/internal/dashboard"
	"github.com/declara-psi/declara-psi/internal/instances"
	"github.com/declara-psi/declara-psi/internal/ledger"
	"github.com/declara-psi/declara-psi/internal/obligations"
	"github.com/declara-psi/declara-psi/internal/observability"
	"github.com/declara-psi/declara-psi/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthService        *auth.Service
	AuthHandler        *auth.Handler
	ClientsHandler     *clients.Handler
	ObligationsHandler *obligations.Handler
	BindingsHandler    *bindings.Handler
	InstancesHandler   *instances.Handler
	LedgerHandler      *ledger.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults. Everything
// under /api requires a bearer token; auth, health and metrics stay public.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(params.AuthService.Middleware)

		params.ClientsHandler.MountRoutes(r)
		params.ObligationsHandler.MountRoutes(r)
		params.BindingsHandler.MountRoutes(r)
		params.InstancesHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
