package obligations

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/fiscal"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
	"github.com/declara-psi/declara-psi/internal/shared"
)

// Handler exposes the obligation-definition CRUD endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers obligation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/obligations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Post("/{id}/archive", h.archive)
	})
}

type obligationPayload struct {
	Name              string `json:"name"`
	Frequency         string `json:"frequency"`
	InternalTargetDay int    `json:"internal_target_day"`
	LegalDueDay       *int   `json:"legal_due_day"`
	Notes             string `json:"notes"`
}

func (p obligationPayload) toModel(accountantID int64) Obligation {
	return Obligation{
		AccountantID:      accountantID,
		Name:              p.Name,
		Frequency:         fiscal.Frequency(p.Frequency),
		InternalTargetDay: p.InternalTargetDay,
		LegalDueDay:       p.LegalDueDay,
		Notes:             p.Notes,
	}
}

type listResponse struct {
	Obligations []Obligation      `json:"obligations"`
	Pagination  shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountantID := auth.AccountantFromContext(r.Context())
	page, perPage := shared.PageQuery(r)
	filters := ListFilters{
		Search:          r.URL.Query().Get("search"),
		IncludeArchived: r.URL.Query().Get("archived") == "true",
		Limit:           perPage,
		Offset:          (page - 1) * perPage,
	}
	list, total, err := h.service.List(r.Context(), accountantID, filters)
	if err != nil {
		h.logger.Error("list obligations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Obligation{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Obligations: list, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid obligation id")
		return
	}
	o, err := h.service.Get(r.Context(), auth.AccountantFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload obligationPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	created, err := h.service.Create(r.Context(), payload.toModel(auth.AccountantFromContext(r.Context())))
	if err != nil {
		h.logger.Error("create obligation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid obligation id")
		return
	}
	var payload obligationPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	o := payload.toModel(auth.AccountantFromContext(r.Context()))
	o.ID = id
	if err := h.service.Update(r.Context(), o); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid obligation id")
		return
	}
	if err := h.service.Archive(r.Context(), auth.AccountantFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
