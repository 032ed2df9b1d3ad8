package handlers

import (
	"net/http"
	"strings"

	"github.com/salondesk/salondesk/libs/auth"
	"github.com/salondesk/salondesk/libs/httpx"
)

const PermissionDashboardRead = "dashboard:read"

// RequireAuth verifies the bearer token and stores its claims on the request
// context.
func RequireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "missing or invalid Authorization header", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

func RequireRole(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
			return
		}
		if !claims.HasRole(roles...) {
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequirePermission(next http.Handler, perm string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
			return
		}
		if !claims.HasPermission(perm) {
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "missing permission "+perm, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
