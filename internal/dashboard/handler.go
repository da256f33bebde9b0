package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

// Handler exposes the dashboard summary endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	accountantID := auth.AccountantFromContext(r.Context())
	summary, err := h.service.GetSummary(r.Context(), accountantID)
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
