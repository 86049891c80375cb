package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrms/internal/domain/access"
	"hrms/internal/domain/access/accesstest"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
)

type stubAuthenticator struct {
	identities map[string]auth.Identity
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	identity, ok := s.identities[token]
	if !ok {
		return auth.Identity{}, auth.ErrSessionInvalid
	}
	return identity, nil
}

type stubRoles map[string]access.Role

func (s stubRoles) ResolveRole(_ context.Context, accountID string) access.Role {
	if role, ok := s[accountID]; ok {
		return role
	}
	return access.RoleEmployee
}

type stubLinker map[string]string

func (s stubLinker) ForAccount(_ context.Context, accountID, _ string) (core.Employee, error) {
	if id, ok := s[accountID]; ok {
		return core.Employee{ID: id}, nil
	}
	return core.Employee{}, core.ErrEmployeeNotFound
}

type countingFailures struct{ n int }

func (c *countingFailures) RecordAuthFailure() { c.n++ }

func newTestAuth(roles stubRoles, failures *countingFailures) func(http.Handler) http.Handler {
	authn := stubAuthenticator{identities: map[string]auth.Identity{
		"tok-hr":  {AccountID: "acct-hr", Email: "hr@city.gov", SessionID: "s1"},
		"tok-emp": {AccountID: "acct-emp", Email: "emp@city.gov", SessionID: "s2"},
	}}
	return Auth(authn, roles, stubLinker{"acct-emp": "emp-7"}, failures)
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	var got access.Actor
	handler := newTestAuth(stubRoles{"acct-hr": access.RoleHR}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		got = user
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-hr")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.AccountID != "acct-hr" || got.Role != access.RoleHR || got.SessionID != "s1" {
		t.Fatalf("unexpected actor: %+v", got)
	}
	if got.EmployeeID != "" {
		t.Fatalf("expected no linked employee, got %q", got.EmployeeID)
	}
}

func TestAuthMiddlewareResolvesRolePerRequest(t *testing.T) {
	roles := stubRoles{"acct-emp": access.RoleEmployee}
	var seen []access.Role
	handler := newTestAuth(roles, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := GetUser(r.Context())
		seen = append(seen, user.Role)
		if user.EmployeeID != "emp-7" {
			t.Fatalf("expected linked employee, got %q", user.EmployeeID)
		}
	}))

	for _, role := range []access.Role{access.RoleEmployee, access.RoleHR} {
		roles["acct-emp"] = role
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok-emp")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if len(seen) != 2 || seen[0] != access.RoleEmployee || seen[1] != access.RoleHR {
		t.Fatalf("expected role change to apply on next request, got %v", seen)
	}
}

func TestAuthMiddlewareInvalidTokenIsAnonymous(t *testing.T) {
	failures := &countingFailures{}
	handler := newTestAuth(stubRoles{}, failures)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if failures.n != 1 {
		t.Fatalf("expected one recorded auth failure, got %d", failures.n)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := newTestAuth(stubRoles{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareWebSocketQueryToken(t *testing.T) {
	var ok bool
	handler := newTestAuth(stubRoles{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/stream?access_token=tok-emp", nil)
	req.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !ok {
		t.Fatal("expected websocket query token to authenticate")
	}

	ok = false
	plain := httptest.NewRequest(http.MethodGet, "/stream?access_token=tok-emp", nil)
	handler.ServeHTTP(httptest.NewRecorder(), plain)
	if ok {
		t.Fatal("query token must only be accepted on websocket upgrades")
	}
}

func TestRequireCategory(t *testing.T) {
	policy := accesstest.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireCategory(policy, access.ViewAudit)(next)

	cases := []struct {
		name   string
		actor  *access.Actor
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"employee", &access.Actor{AccountID: "a1", Role: access.RoleEmployee}, http.StatusForbidden},
		{"admin", &access.Actor{AccountID: "a2", Role: access.RoleAdmin}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/audit/events", nil)
			if tc.actor != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.actor))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}
