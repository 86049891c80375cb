package settingshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type SettingsService interface {
	ListRoles(ctx context.Context, actor access.Actor) ([]access.RoleAssignment, error)
	SetRole(ctx context.Context, actor access.Actor, accountID, raw string) (access.Role, error)
	EffectiveFlags(ctx context.Context) access.Flags
	UpdateFlags(ctx context.Context, actor access.Actor, patch access.FlagsPatch) (access.Flags, error)
}

type Handler struct {
	Service SettingsService
	Policy  access.Checker
	Audit   shared.AuditRecorder
}

func NewHandler(service SettingsService, policy access.Checker, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Policy: policy, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/roles", h.handleListRoles)
		r.Put("/roles/{accountID}", h.handleSetRole)
		r.With(middleware.RequireCategory(h.Policy, access.ViewConfig)).Get("/flags", h.handleGetFlags)
		r.Patch("/flags", h.handleUpdateFlags)
	})
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	roles, err := h.Service.ListRoles(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "role_list_failed")
		return
	}
	if roles == nil {
		roles = []access.RoleAssignment{}
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload roleRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	accountID := chi.URLParam(r, "accountID")
	role, err := h.Service.SetRole(r.Context(), user, accountID, payload.Role)
	if err != nil {
		h.fail(w, r, err, "role_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "settings.role.set",
		EntityType: "account",
		EntityID:   accountID,
		After:      map[string]string{"role": role.String()},
	})
	api.Success(w, map[string]string{"accountId": accountID, "role": role.String()}, requestID)
}

// handleGetFlags lets clients render the capabilities currently granted to HR.
func (h *Handler) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Service.EffectiveFlags(r.Context()), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateFlags(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var patch access.FlagsPatch
	if !shared.DecodeJSON(w, r, &patch, requestID) {
		return
	}
	flags, err := h.Service.UpdateFlags(r.Context(), user, patch)
	if err != nil {
		h.fail(w, r, err, "flags_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "settings.flags.update",
		EntityType: "system_config",
		EntityID:   access.SystemConfigID,
		After:      flags,
	})
	api.Success(w, flags, requestID)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, access.ErrUnknownRole), errors.Is(err, access.ErrNoChanges):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("settings request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "settings request failed", requestID)
	}
}
