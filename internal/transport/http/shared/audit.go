package shared

import (
	"context"
	"log/slog"
	"net/http"

	"hrms/internal/domain/audit"
	"hrms/internal/platform/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// RecordAudit stamps entry with the request id and client address and writes
// it. Failures are logged; a mutation that already succeeded is not undone.
func RecordAudit(r *http.Request, recorder AuditRecorder, entry audit.Entry) {
	if recorder == nil {
		return
	}
	entry.RequestID = requestctx.GetRequestID(r.Context())
	entry.IP = ClientIP(r)
	if err := recorder.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "err", err)
	}
}
