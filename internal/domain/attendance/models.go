package attendance

import (
	"fmt"
	"strings"
	"time"
)

type Status string

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	switch status := Status(strings.ToLower(strings.TrimSpace(raw))); status {
	case StatusPresent, StatusAbsent, StatusLeave:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Entry is one employee's status for one calendar date. (Date, EmployeeID)
// identifies it.
type Entry struct {
	Date       string    `json:"date"`
	EmployeeID string    `json:"employeeId"`
	Status     Status    `json:"status"`
	MarkedBy   string    `json:"markedBy,omitempty"`
	MarkedAt   time.Time `json:"markedAt"`
}

type Summary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Leave   int `json:"leave"`
	Total   int `json:"total"`
}

func Summarize(entries []Entry) Summary {
	var out Summary
	for _, entry := range entries {
		switch entry.Status {
		case StatusPresent:
			out.Present++
		case StatusAbsent:
			out.Absent++
		case StatusLeave:
			out.Leave++
		}
	}
	out.Total = out.Present + out.Absent + out.Leave
	return out
}

// NormalizeDate returns the canonical YYYY-MM-DD form of raw.
func NormalizeDate(raw string) (string, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return parsed.Format(DateLayout), nil
}
