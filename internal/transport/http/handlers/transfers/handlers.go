package transfershandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/transfers"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type TransferService interface {
	Request(ctx context.Context, actor access.Actor, in transfers.RequestInput) (transfers.Request, error)
	List(ctx context.Context, actor access.Actor) ([]transfers.Request, error)
	Decide(ctx context.Context, actor access.Actor, id, decision string) (transfers.Request, error)
}

type Handler struct {
	Service TransferService
	Audit   shared.AuditRecorder
}

func NewHandler(service TransferService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleRequest)
		r.Post("/{transferID}/decision", h.handleDecide)
	})
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "transfer_list_failed")
		return
	}
	if list == nil {
		list = []transfers.Request{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload transfers.RequestInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	req, err := h.Service.Request(r.Context(), user, payload)
	if err != nil {
		h.fail(w, r, err, "transfer_request_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "transfer.request",
		EntityType: "transfer",
		EntityID:   req.ID,
		After:      payload,
	})
	api.Created(w, req, requestID)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload decisionRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("decision", payload.Decision, "decision is required")
	v.Enum("decision", payload.Decision, []string{string(transfers.StatusApproved), string(transfers.StatusRejected)}, "must be approved or rejected")
	if v.Reject(w, requestID) {
		return
	}

	transferID := chi.URLParam(r, "transferID")
	req, err := h.Service.Decide(r.Context(), user, transferID, payload.Decision)
	if err != nil {
		h.fail(w, r, err, "transfer_decision_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "transfer.decide",
		EntityType: "transfer",
		EntityID:   transferID,
		Before:     map[string]string{"status": string(transfers.StatusPending)},
		After:      map[string]string{"status": string(req.Status)},
	})
	api.Success(w, req, requestID)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, transfers.ErrTransferNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "transfer request not found", requestID)
	case errors.Is(err, transfers.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", "transfer request is no longer pending", requestID)
	case errors.Is(err, transfers.ErrInvalidDecision), errors.Is(err, transfers.ErrDestinationNeeded),
		errors.Is(err, transfers.ErrSameDepartment), errors.Is(err, transfers.ErrEmployeeID):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("transfer request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "transfer request failed", requestID)
	}
}
