package bindings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
	"github.com/declara-psi/declara-psi/internal/shared"
)

// Handler exposes the binding endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers binding routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/bindings", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}/params", h.updateParams)
		r.Post("/{id}/deactivate", h.deactivate)
	})
}

type bindingPayload struct {
	ClientID     uuid.UUID      `json:"client_id"`
	ObligationID uuid.UUID      `json:"obligation_id"`
	Params       map[string]any `json:"params"`
}

type listResponse struct {
	Bindings   []Binding         `json:"bindings"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountantID := auth.AccountantFromContext(r.Context())
	page, perPage := shared.PageQuery(r)
	filters := ListFilters{
		OnlyActive: r.URL.Query().Get("active") == "true",
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client_id filter")
			return
		}
		filters.ClientID = id
	}
	if raw := r.URL.Query().Get("obligation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid obligation_id filter")
			return
		}
		filters.ObligationID = id
	}

	list, total, err := h.service.List(r.Context(), accountantID, filters)
	if err != nil {
		h.logger.Error("list bindings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Binding{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Bindings: list, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid binding id")
		return
	}
	b, err := h.service.Get(r.Context(), auth.AccountantFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload bindingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	created, err := h.service.Create(r.Context(), Binding{
		AccountantID: auth.AccountantFromContext(r.Context()),
		ClientID:     payload.ClientID,
		ObligationID: payload.ObligationID,
		Params:       payload.Params,
	})
	if err != nil {
		h.logger.Error("create binding", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateParams(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid binding id")
		return
	}
	var params map[string]any
	if err := httpx.DecodeJSON(r, &params); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.service.UpdateParams(r.Context(), auth.AccountantFromContext(r.Context()), id, params); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid binding id")
		return
	}
	if err := h.service.Deactivate(r.Context(), auth.AccountantFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
