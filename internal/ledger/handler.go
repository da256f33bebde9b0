package ledger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/declara-psi/declara-psi/internal/auth"
	"github.com/declara-psi/declara-psi/internal/platform/httpx"
	"github.com/declara-psi/declara-psi/internal/shared"
)

// Handler exposes the fiscal-record endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the ledger routes. Charges and expenses are two
// collections over the same record storage.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/charges", h.listKind(KindCharge))
		r.Post("/charges", h.createKind(KindCharge))
		r.Get("/expenses", h.listKind(KindExpense))
		r.Post("/expenses", h.createKind(KindExpense))
		r.Get("/records/{id}", h.get)
		r.Put("/records/{id}", h.update)
		r.Delete("/records/{id}", h.delete)
		r.Post("/records/{id}/pay", h.markPaid)
		r.Get("/period-check", h.periodCheck)
		r.Get("/allowed-period", h.allowedPeriod)
	})
}

type recordPayload struct {
	ClientID    *uuid.UUID `json:"client_id"`
	Kind        RecordKind `json:"kind"`
	Description string     `json:"description"`
	AmountCents int64      `json:"amount_cents"`
	PaymentDate *string    `json:"payment_date"`
}

func (p recordPayload) paymentDate() (*time.Time, error) {
	if p.PaymentDate == nil || *p.PaymentDate == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *p.PaymentDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type listRecordsResponse struct {
	Records    []Record          `json:"records"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listKind(kind RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountantID := auth.AccountantFromContext(r.Context())
		page, perPage := shared.PageQuery(r)
		filters := ListFilters{
			Kind:   kind,
			Limit:  perPage,
			Offset: (page - 1) * perPage,
		}
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
				return
			}
			filters.ClientID = id
		}
		list, total, err := h.service.List(r.Context(), accountantID, filters)
		if err != nil {
			h.logger.Error("list fiscal records", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if list == nil {
			list = []Record{}
		}
		httpx.JSON(w, http.StatusOK, listRecordsResponse{Records: list, Pagination: shared.NewPagination(page, perPage, total)})
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	rec, err := h.service.Get(r.Context(), auth.AccountantFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) createKind(kind RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
		paymentDate, err := payload.paymentDate()
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payment_date must be YYYY-MM-DD")
			return
		}
		created, err := h.service.Create(r.Context(), Record{
			AccountantID: auth.AccountantFromContext(r.Context()),
			ClientID:     payload.ClientID,
			Kind:         kind,
			Description:  payload.Description,
			AmountCents:  payload.AmountCents,
			PaymentDate:  paymentDate,
		})
		if err != nil {
			h.logger.Error("create fiscal record", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, created)
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	var payload recordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	paymentDate, err := payload.paymentDate()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payment_date must be YYYY-MM-DD")
		return
	}
	err = h.service.Update(r.Context(), Record{
		ID:           id,
		AccountantID: auth.AccountantFromContext(r.Context()),
		ClientID:     payload.ClientID,
		Kind:         payload.Kind,
		Description:  payload.Description,
		AmountCents:  payload.AmountCents,
		PaymentDate:  paymentDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	if err := h.service.Delete(r.Context(), auth.AccountantFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type markPaidRequest struct {
	PaymentDate string `json:"payment_date"`
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	var req markPaidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	paymentDate, err := time.Parse(time.DateOnly, req.PaymentDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payment_date must be YYYY-MM-DD")
		return
	}
	rec, err := h.service.MarkPaid(r.Context(), auth.AccountantFromContext(r.Context()), id, paymentDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

type periodCheckResponse struct {
	Allowed       bool   `json:"allowed"`
	AllowedPeriod string `json:"allowed_period"`
}

func (h *Handler) periodCheck(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	allowed, window := h.service.PeriodCheck(date)
	httpx.JSON(w, http.StatusOK, periodCheckResponse{Allowed: allowed, AllowedPeriod: window})
}

func (h *Handler) allowedPeriod(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"allowed_period": h.service.AllowedPeriod()})
}
