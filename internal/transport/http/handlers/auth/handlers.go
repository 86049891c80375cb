package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type AccountService interface {
	SignIn(ctx context.Context, email, password, mfaCode string) (auth.Identity, error)
	SignOut(ctx context.Context, identity auth.Identity) error
	SignUp(ctx context.Context, email, password string) (string, error)
	SetupMFA(ctx context.Context, identity auth.Identity) (auth.MFASetup, error)
	SetMFA(ctx context.Context, identity auth.Identity, code string, enabled bool) error
}

type Handler struct {
	Service     AccountService
	Audit       shared.AuditRecorder
	AllowSignup bool
}

func NewHandler(service AccountService, auditor shared.AuditRecorder, allowSignup bool) *Handler {
	return &Handler{Service: service, Audit: auditor, AllowSignup: allowSignup}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/signup", h.HandleSignup)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/logout", h.HandleLogout)
			r.Get("/me", h.HandleMe)
			r.Post("/mfa/setup", h.HandleMFASetup)
			r.Post("/mfa/enable", h.HandleMFAEnable)
			r.Post("/mfa/disable", h.HandleMFADisable)
		})
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, requestID) {
		return
	}

	identity, err := h.Service.SignIn(r.Context(), payload.Email, payload.Password, payload.MFACode)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrTooManyAttempts):
		api.Fail(w, http.StatusTooManyRequests, "too_many_attempts", "too many failed attempts, try again later", requestID)
		return
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
		return
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	default:
		slog.Warn("sign in failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
		return
	}

	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    identity.AccountID,
		Action:     "auth.login",
		EntityType: "account",
		EntityID:   identity.AccountID,
	})
	api.Success(w, identity, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	identity := auth.Identity{AccountID: user.AccountID, Email: user.Email, SessionID: user.SessionID}
	if err := h.Service.SignOut(r.Context(), identity); err != nil {
		slog.Warn("sign out failed", "accountId", user.AccountID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to sign out", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "auth.logout",
		EntityType: "account",
		EntityID:   user.AccountID,
	})
	api.Success(w, map[string]bool{"signedOut": true}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, map[string]string{
		"accountId":  user.AccountID,
		"email":      user.Email,
		"role":       user.Role.String(),
		"employeeId": user.EmployeeID,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !h.AllowSignup {
		api.Fail(w, http.StatusForbidden, "signup_disabled", "self sign-up is disabled", requestID)
		return
	}
	var payload signupRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	accountID, err := h.Service.SignUp(r.Context(), payload.Email, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
		return
	case errors.Is(err, auth.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", requestID)
		return
	default:
		slog.Warn("sign up failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "signup_failed", "failed to sign up", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    accountID,
		Action:     "auth.signup",
		EntityType: "account",
		EntityID:   accountID,
	})
	api.Created(w, map[string]string{"accountId": accountID}, requestID)
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	setup, err := h.Service.SetupMFA(r.Context(), auth.Identity{AccountID: user.AccountID, Email: user.Email})
	if err != nil {
		h.failMFA(w, err, requestID)
		return
	}
	api.Success(w, setup, requestID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, false)
}

func (h *Handler) setMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if err := h.Service.SetMFA(r.Context(), auth.Identity{AccountID: user.AccountID, Email: user.Email}, payload.Code, enabled); err != nil {
		h.failMFA(w, err, requestID)
		return
	}
	action := "auth.mfa.disable"
	if enabled {
		action = "auth.mfa.enable"
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     action,
		EntityType: "account",
		EntityID:   user.AccountID,
	})
	api.Success(w, map[string]bool{"mfaEnabled": enabled}, requestID)
}

func (h *Handler) failMFA(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, auth.ErrMFAUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "mfa_unavailable", "mfa is not configured on this server", requestID)
	case errors.Is(err, auth.ErrMFANotSetUp):
		api.Fail(w, http.StatusConflict, "mfa_not_setup", "run mfa setup first", requestID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
	default:
		slog.Warn("mfa update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "mfa_failed", "failed to update mfa", requestID)
	}
}
