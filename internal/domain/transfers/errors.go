package transfers

import "errors"

var (
	ErrTransferNotFound  = errors.New("transfer request not found")
	ErrInvalidTransition = errors.New("transfer request is no longer pending")
	ErrInvalidDecision   = errors.New("decision must be approved or rejected")
	ErrDestinationNeeded = errors.New("destination department is required")
	ErrSameDepartment    = errors.New("destination must differ from current department")
	ErrEmployeeID        = errors.New("employee id is required")
)
