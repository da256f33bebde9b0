package instances

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/fiscal"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
	"github.com/declara-psi/declara-psi/internal/shared"
)

// Handler exposes the instance listing and completion endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers instance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/instances", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/complete", h.complete)
	})
}

type listResponse struct {
	Instances  []Instance        `json:"instances"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountantID := auth.AccountantFromContext(r.Context())
	page, perPage := shared.PageQuery(r)
	filters := ListFilters{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client_id filter")
			return
		}
		filters.ClientID = id
	}
	if raw := r.URL.Query().Get("competence"); raw != "" {
		c, err := fiscal.ParseCompetence(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "competence must be MM/YYYY")
			return
		}
		filters.Competence = c.String()
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := fiscal.Status(raw)
		if !status.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status filter")
			return
		}
		filters.Status = status
	}

	list, total, err := h.service.List(r.Context(), accountantID, filters)
	if err != nil {
		h.logger.Error("list instances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Instance{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Instances: list, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid instance id")
		return
	}
	in, err := h.service.Get(r.Context(), auth.AccountantFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}

type completeRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid instance id")
		return
	}
	var req completeRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
	}
	var completedAt time.Time
	if req.CompletedAt != nil {
		completedAt = *req.CompletedAt
	}

	in, err := h.service.Complete(r.Context(), auth.AccountantFromContext(r.Context()), id, completedAt)
	if err != nil {
		if err == ErrAlreadyCompleted {
			httpx.Problem(w, http.StatusConflict, "Already Completed", "instance already reached a terminal status")
			return
		}
		h.logger.Error("complete instance", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}
