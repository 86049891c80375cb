package access

// Decision is the outcome of a policy check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Authorize decides whether role may perform an operation of the given
// category. isSelf is true when the target record belongs to the caller.
// Admin is always a superset of HR; HR capabilities follow flags.
func Authorize(role Role, flags Flags, category Category, isSelf bool) Decision {
	switch role {
	case RoleAdmin:
		return authorizeAdmin(category, isSelf)
	case RoleHR:
		return authorizeHR(flags, category, isSelf)
	case RoleEmployee:
		return authorizeEmployee(category, isSelf)
	}
	return Deny
}

func authorizeAdmin(category Category, isSelf bool) Decision {
	switch category {
	case UpdateTask:
		// Only the assignee moves a task along.
		return Decision(isSelf)
	case ViewEmployees, ManageEmployees, MarkAttendance, ViewAttendance,
		ViewPayroll, EditPayroll, RatePerformance, ViewPerformance,
		FileTransfer, ViewTransfers, DecideTransfer,
		FileGrievance, ViewGrievances, ResolveGrievance,
		AssignTasks, ViewTasks, ManageJobs, ViewApplications,
		ChangeRole, ViewConfig, EditConfig, ViewAudit:
		return Allow
	}
	return Deny
}

func authorizeHR(flags Flags, category Category, isSelf bool) Decision {
	switch category {
	case ViewEmployees:
		return Decision(flags.ViewEmployees || isSelf)
	case MarkAttendance:
		return Decision(flags.MarkAttendance)
	case ViewAttendance:
		return Decision(flags.MarkAttendance || isSelf)
	case ViewPayroll:
		return Decision(flags.ManagePayroll || isSelf)
	case EditPayroll:
		return Decision(flags.ManagePayroll && !isSelf)
	case RatePerformance:
		return Decision(!isSelf)
	case ViewPerformance, ViewTransfers, FileGrievance, ManageJobs, ViewApplications, ViewConfig:
		return Allow
	case DecideTransfer:
		return Decision(flags.ApproveTransfers)
	case FileTransfer, ViewGrievances, ViewTasks, UpdateTask:
		return Decision(isSelf)
	}
	return Deny
}

func authorizeEmployee(category Category, isSelf bool) Decision {
	switch category {
	case ViewEmployees, ViewAttendance, ViewPayroll, ViewPerformance,
		FileTransfer, ViewTransfers, ViewGrievances, ViewTasks, UpdateTask:
		return Decision(isSelf)
	case FileGrievance, ViewConfig:
		return Allow
	}
	return Deny
}
