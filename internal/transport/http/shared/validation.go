package shared

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"hrms/internal/transport/http/api"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field problems so a client sees all of them in one 400.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, reason string) {
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, reason)
	}
}

// Enum ignores an empty value; pair it with Required when the field is mandatory.
func (v *Validator) Enum(field, value string, allowed []string, reason string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return
	}
	for _, candidate := range allowed {
		if normalized == strings.ToLower(candidate) {
			return
		}
	}
	v.add(field, reason)
}

// Date checks a calendar date in YYYY-MM-DD form.
func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		v.add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

// Month returns fallback for an empty value.
func (v *Validator) Month(field, raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	parsed, err := time.Parse(MonthLayout, raw)
	if err != nil {
		v.add(field, "must be a month in YYYY-MM format")
		return fallback
	}
	return parsed
}

// Reject writes the 400 and reports true when anything was collected.
// Issues are sorted by field so responses are stable.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if len(v.issues) == 0 {
		return false
	}
	sort.SliceStable(v.issues, func(i, j int) bool {
		return v.issues[i].Field < v.issues[j].Field
	})
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": v.issues}, requestID)
	return true
}
