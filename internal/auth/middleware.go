package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/declara-psi/declara-psi/internal/platform/httpx"
)

type contextKey struct{}

// ContextWithAccountant stores the tenant identity on the context.
func ContextWithAccountant(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// AccountantFromContext returns the tenant identity established by the
// middleware, or zero when the request is unauthenticated.
func AccountantFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(contextKey{}).(int64)
	return id
}

// Middleware rejects requests without a valid bearer token and scopes the
// request context to the token's accountant.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		id, err := s.ParseToken(raw)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAccountant(r.Context(), id)))
	})
}
