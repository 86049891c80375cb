package authhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/middleware"
)

type stubAccounts struct {
	signInErr  error
	signedOut  []string
	signedUp   []string
	mfaEnabled map[string]bool
}

func (s *stubAccounts) SignIn(_ context.Context, email, _, _ string) (auth.Identity, error) {
	if s.signInErr != nil {
		return auth.Identity{}, s.signInErr
	}
	return auth.Identity{AccountID: "acct-1", Email: email, SessionID: "sess-1", Token: "tok"}, nil
}

func (s *stubAccounts) SignOut(_ context.Context, identity auth.Identity) error {
	s.signedOut = append(s.signedOut, identity.SessionID)
	return nil
}

func (s *stubAccounts) SignUp(_ context.Context, email, _ string) (string, error) {
	s.signedUp = append(s.signedUp, email)
	return "acct-new", nil
}

func (s *stubAccounts) SetupMFA(context.Context, auth.Identity) (auth.MFASetup, error) {
	return auth.MFASetup{}, auth.ErrMFAUnavailable
}

func (s *stubAccounts) SetMFA(_ context.Context, identity auth.Identity, code string, enabled bool) error {
	if code != "123456" {
		return auth.ErrMFAInvalid
	}
	if s.mfaEnabled == nil {
		s.mfaEnabled = map[string]bool{}
	}
	s.mfaEnabled[identity.AccountID] = enabled
	return nil
}

type memoryAudit struct {
	actions []string
}

func (m *memoryAudit) Record(_ context.Context, entry audit.Entry) error {
	m.actions = append(m.actions, entry.Action)
	return nil
}

func newRouter(h *Handler, actor *access.Actor) http.Handler {
	r := chi.NewRouter()
	if actor != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), *actor)))
			})
		})
	}
	h.RegisterRoutes(r)
	return r
}

func post(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "success", status: http.StatusOK},
		{name: "bad credentials", err: auth.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{name: "throttled", err: auth.ErrTooManyAttempts, status: http.StatusTooManyRequests},
		{name: "mfa required", err: auth.ErrMFARequired, status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := &memoryAudit{}
			h := NewHandler(&stubAccounts{signInErr: tc.err}, recorder, false)
			rec := post(t, newRouter(h, nil), "/auth/login", loginRequest{Email: "a@city.gov", Password: "Secret123"})
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.err == nil && (len(recorder.actions) != 1 || recorder.actions[0] != "auth.login") {
				t.Fatalf("expected login audit, got %v", recorder.actions)
			}
		})
	}
}

func TestLoginRequiresFields(t *testing.T) {
	h := NewHandler(&stubAccounts{}, nil, false)
	rec := post(t, newRouter(h, nil), "/auth/login", loginRequest{Email: "a@city.gov"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogoutReleasesSession(t *testing.T) {
	accounts := &stubAccounts{}
	actor := access.Actor{AccountID: "acct-1", SessionID: "sess-9", Role: access.RoleEmployee}
	rec := post(t, newRouter(NewHandler(accounts, nil, false), &actor), "/auth/logout", struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(accounts.signedOut) != 1 || accounts.signedOut[0] != "sess-9" {
		t.Fatalf("expected session sess-9 to be signed out, got %v", accounts.signedOut)
	}
}

func TestLogoutRequiresAuth(t *testing.T) {
	rec := post(t, newRouter(NewHandler(&stubAccounts{}, nil, false), nil), "/auth/logout", struct{}{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSignupGate(t *testing.T) {
	accounts := &stubAccounts{}
	closed := post(t, newRouter(NewHandler(accounts, nil, false), nil), "/auth/signup", signupRequest{Email: "n@city.gov", Password: "Secret123"})
	if closed.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when sign-up disabled, got %d", closed.Code)
	}
	open := post(t, newRouter(NewHandler(accounts, nil, true), nil), "/auth/signup", signupRequest{Email: "n@city.gov", Password: "Secret123"})
	if open.Code != http.StatusCreated || len(accounts.signedUp) != 1 {
		t.Fatalf("expected sign-up to succeed, got %d", open.Code)
	}
}

func TestMFAEndpoints(t *testing.T) {
	accounts := &stubAccounts{}
	actor := access.Actor{AccountID: "acct-1", Role: access.RoleAdmin}
	router := newRouter(NewHandler(accounts, nil, false), &actor)

	if rec := post(t, router, "/auth/mfa/setup", struct{}{}); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without encryption key, got %d", rec.Code)
	}
	if rec := post(t, router, "/auth/mfa/enable", mfaCodeRequest{Code: "000000"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a wrong code, got %d", rec.Code)
	}
	if rec := post(t, router, "/auth/mfa/enable", mfaCodeRequest{Code: "123456"}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !accounts.mfaEnabled["acct-1"] {
		t.Fatal("expected mfa enabled")
	}
}
