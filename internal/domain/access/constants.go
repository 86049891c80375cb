package access

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles an account can hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
)

const (
	SystemConfigID = "global"

	CollectionUserRoles    = "user_roles"
	CollectionSystemConfig = "system_config"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleEmployee:
		return true
	}
	return false
}

// ParseRole normalizes a stored or submitted role value. Quote characters and
// surrounding whitespace are dropped and the result is lower-cased.
func ParseRole(raw string) (Role, error) {
	cleaned := strings.NewReplacer(`"`, "", "'", "").Replace(raw)
	role := Role(strings.ToLower(strings.TrimSpace(cleaned)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

// Category is an operation class gated by the policy.
type Category int

const (
	ViewEmployees Category = iota + 1
	ManageEmployees
	MarkAttendance
	ViewAttendance
	ViewPayroll
	EditPayroll
	RatePerformance
	ViewPerformance
	FileTransfer
	ViewTransfers
	DecideTransfer
	FileGrievance
	ViewGrievances
	ResolveGrievance
	AssignTasks
	ViewTasks
	UpdateTask
	ManageJobs
	ViewApplications
	ChangeRole
	ViewConfig
	EditConfig
	ViewAudit
)

var categoryNames = map[Category]string{
	ViewEmployees:    "employees.view",
	ManageEmployees:  "employees.manage",
	MarkAttendance:   "attendance.mark",
	ViewAttendance:   "attendance.view",
	ViewPayroll:      "payroll.view",
	EditPayroll:      "payroll.edit",
	RatePerformance:  "performance.rate",
	ViewPerformance:  "performance.view",
	FileTransfer:     "transfers.file",
	ViewTransfers:    "transfers.view",
	DecideTransfer:   "transfers.decide",
	FileGrievance:    "grievances.file",
	ViewGrievances:   "grievances.view",
	ResolveGrievance: "grievances.resolve",
	AssignTasks:      "tasks.assign",
	ViewTasks:        "tasks.view",
	UpdateTask:       "tasks.update",
	ManageJobs:       "jobs.manage",
	ViewApplications: "applications.view",
	ChangeRole:       "roles.change",
	ViewConfig:       "config.view",
	EditConfig:       "config.edit",
	ViewAudit:        "audit.view",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

func AllRoles() []Role {
	return []Role{RoleAdmin, RoleHR, RoleEmployee}
}

func AllCategories() []Category {
	categories := make([]Category, 0, len(categoryNames))
	for c := ViewEmployees; c <= ViewAudit; c++ {
		categories = append(categories, c)
	}
	return categories
}
