package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity header names. The host's session layer terminates
// authentication and forwards the caller as these headers; this core
// trusts them completely and performs no credential checks.
const (
	HeaderUser = "X-Club-User"
	HeaderName = "X-Club-Name"
	HeaderRole = "X-Club-Role"
)

// RequireIdentity extracts the caller identity from the gateway
// headers and normalizes it into a single canonical record before it
// reaches the core. Requests without a user id are rejected.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUser))
		if id == "" {
			jsonError(w, http.StatusUnauthorized, "missing identity headers")
			return
		}

		ident := models.Identity{
			ID:   id,
			Name: strings.TrimSpace(r.Header.Get(HeaderName)),
			Role: strings.TrimSpace(r.Header.Get(HeaderRole)),
		}
		if ident.Name == "" {
			ident.Name = ident.ID
		}

		ctx := context.WithValue(r.Context(), identityContextKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext retrieves the caller identity set by
// RequireIdentity. The second return is false outside the middleware.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey).(models.Identity)
	return ident, ok
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
