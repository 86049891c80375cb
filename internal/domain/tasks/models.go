package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrms/internal/domain/core"
	"hrms/internal/platform/jobs"
)

type Status string

// ParseStatus is case-insensitive and accepts "in_progress" for In Progress.
func ParseStatus(raw string) (Status, error) {
	key := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range []Status{StatusPending, StatusInProgress, StatusCompleted} {
		if strings.ToLower(string(status)) == key {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

type Task struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	AssignedTo    string    `json:"assignedTo"`
	EmployeeName  string    `json:"employeeName"`
	AssignedBy    string    `json:"assignedBy"`
	DueDate       string    `json:"dueDate"`
	Status        Status    `json:"status"`
	EmployeeNotes string    `json:"employeeNotes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type AssignInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	DueDate     string `json:"dueDate"`
}

// UpdateInput is the only part of a task its assignee may change. An empty
// Status keeps the current one.
type UpdateInput struct {
	Status string  `json:"status"`
	Notes  *string `json:"employeeNotes"`
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// CountStats treats every task that is not completed as pending.
func CountStats(list []Task) Stats {
	out := Stats{Total: len(list)}
	for _, task := range list {
		if task.Status == StatusCompleted {
			out.Completed++
		}
	}
	out.Pending = out.Total - out.Completed
	return out
}

type Directory interface {
	EmployeeByEmail(ctx context.Context, email string) (core.Employee, error)
}

type Enqueuer interface {
	Enqueue(jobType string, run jobs.RunFunc)
}
