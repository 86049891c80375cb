package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hrms/internal/domain/access"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, accountID string) access.Role
}

type EmployeeLinker interface {
	ForAccount(ctx context.Context, accountID, email string) (core.Employee, error)
}

type AuthFailureRecorder interface {
	RecordAuthFailure()
}

// Auth resolves the bearer token into an access.Actor. The role is read on
// every request so an administrator's role change applies immediately.
// Requests without a valid token continue unauthenticated.
func Auth(authn Authenticator, roles RoleResolver, employees EmployeeLinker, failures AuthFailureRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if failures != nil {
					failures.RecordAuthFailure()
				}
				next.ServeHTTP(w, r)
				return
			}

			actor := access.Actor{
				AccountID: identity.AccountID,
				Email:     identity.Email,
				SessionID: identity.SessionID,
				ExpiresAt: identity.ExpiresAt,
				Role:      roles.ResolveRole(r.Context(), identity.AccountID),
			}
			if employees != nil {
				emp, err := employees.ForAccount(r.Context(), identity.AccountID, identity.Email)
				switch {
				case err == nil:
					actor.EmployeeID = emp.ID
				case !errors.Is(err, core.ErrEmployeeNotFound):
					slog.Warn("employee link lookup failed", "accountId", identity.AccountID, "err", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), actor)))
		})
	}
}

// RequireAuth rejects requests that Auth could not identify.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken reads the Authorization header. WebSocket upgrades may pass the
// token as access_token because browsers cannot set headers on them.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func WithUser(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyUser, actor)
}

func GetUser(ctx context.Context) (access.Actor, bool) {
	user, ok := ctx.Value(ctxKeyUser).(access.Actor)
	return user, ok
}
