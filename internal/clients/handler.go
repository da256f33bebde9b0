package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
	"github.com/declara-psi/declara-psi/internal/shared"
)

// Handler exposes the client CRUD endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Post("/{id}/archive", h.archive)
	})
}

type clientPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
}

type listResponse struct {
	Clients    []Client          `json:"clients"`
	Pagination shared.Pagination `json:"pagination"`
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
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Client{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Clients: list, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	c, err := h.service.Get(r.Context(), auth.AccountantFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload clientPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	created, err := h.service.Create(r.Context(), Client{
		AccountantID: auth.AccountantFromContext(r.Context()),
		Name:         payload.Name,
		Email:        payload.Email,
		Document:     payload.Document,
		Phone:        payload.Phone,
		Notes:        payload.Notes,
	})
	if err != nil {
		h.logger.Error("create client", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	var payload clientPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	err = h.service.Update(r.Context(), Client{
		ID:           id,
		AccountantID: auth.AccountantFromContext(r.Context()),
		Name:         payload.Name,
		Email:        payload.Email,
		Document:     payload.Document,
		Phone:        payload.Phone,
		Notes:        payload.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	if err := h.service.Archive(r.Context(), auth.AccountantFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
