package transfers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrms/internal/domain/core"
)

type Status string

// Request moves an employee between departments. The employee's name and
// source department are captured when it is filed.
type Request struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employeeId"`
	EmployeeName   string     `json:"employeeName"`
	FromDepartment string     `json:"fromDepartment"`
	ToDepartment   string     `json:"toDepartment"`
	Reason         string     `json:"reason"`
	Status         Status     `json:"status"`
	RequestedBy    string     `json:"requestedBy"`
	RequestedAt    time.Time  `json:"requestedAt"`
	DecidedBy      string     `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
}

type RequestInput struct {
	EmployeeID   string `json:"employeeId"`
	ToDepartment string `json:"toDepartment"`
	Reason       string `json:"reason"`
}

// ParseDecision accepts only the two terminal statuses.
func ParseDecision(raw string) (Status, error) {
	switch status := Status(strings.ToLower(strings.TrimSpace(raw))); status {
	case StatusApproved, StatusRejected:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, raw)
	}
}

// Directory resolves the employee snapshot stored on a request.
type Directory interface {
	GetEmployee(ctx context.Context, employeeID string) (core.Employee, error)
}
