package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _ := newTestService(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	handler := NewHandler(slog.Default(), svc)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, svc
}

func TestLoginSuccess(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"email":"maria@declarapsi.local","password":"contador123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		Name      string    `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "Maria Contadora", resp.Name)
}

func TestLoginBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"email":"maria@declarapsi.local","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"email":"not-an-email","password":""}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMiddlewareScopesRequest(t *testing.T) {
	router, svc := newTestRouter(t)

	token, _, err := svc.IssueToken(&Accountant{ID: 7, Name: "Maria Contadora"})
	require.NoError(t, err)

	var gotID int64
	protected := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = AccountantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	router.Handle("/protected", protected)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(7), gotID)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
