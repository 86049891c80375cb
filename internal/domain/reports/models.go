package reports

import (
	"context"
	"encoding/json"
	"time"

	"hrms/internal/domain/access"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/core"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/tasks"
)

// Dashboard is the landing view. Sections the caller cannot see, or that
// have no data, are left nil.
type Dashboard struct {
	Headcount  core.Headcount      `json:"headcount"`
	Attendance *attendance.Summary `json:"attendance,omitempty"`
	Payroll    *PayrollSummary     `json:"payroll,omitempty"`
	Tasks      *tasks.Stats        `json:"tasks,omitempty"`
}

type PayrollSummary struct {
	Monthly float64 `json:"monthly"`
	Annual  float64 `json:"annual"`
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
}

type Headcounter interface {
	Headcount(ctx context.Context) (core.Headcount, error)
}

type AttendanceSummarizer interface {
	Summary(ctx context.Context, actor access.Actor, employeeID string) (attendance.Summary, error)
}

type PayrollReader interface {
	Get(ctx context.Context, actor access.Actor, employeeID string) (payroll.Record, bool, error)
}

type TaskCounter interface {
	Stats(ctx context.Context, actor access.Actor) (tasks.Stats, error)
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var details map[string]any
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
