package grievances

import "errors"

var (
	ErrGrievanceNotFound = errors.New("grievance not found")
	ErrAlreadyResolved   = errors.New("grievance is already resolved")
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title is too long")
)
