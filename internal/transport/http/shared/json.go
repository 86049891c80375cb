package shared

import (
	"encoding/json"
	"net/http"

	"hrms/internal/transport/http/api"
)

// DecodeJSON decodes the body into dst and writes a 400 when it cannot.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	return true
}
