package middleware

import (
	"net/http"

	"hrms/internal/domain/access"
	"hrms/internal/transport/http/api"
)

// RequireCategory gates routes whose category never depends on record
// ownership. Ownership-sensitive checks stay in the domain services.
func RequireCategory(policy access.Checker, category access.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if err := policy.Check(r.Context(), user, category, false); err != nil {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
