package attendance

import "errors"

var (
	ErrInvalidStatus   = errors.New("status must be present, absent or leave")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrEntryNotFound   = errors.New("attendance entry not found")
	ErrEmployeeID      = errors.New("employee id is required")
	ErrUnknownEmployee = errors.New("employee does not exist")
)
