package payroll

import "errors"

var (
	ErrRecordNotFound  = errors.New("payroll record not found")
	ErrNegativeAmount  = errors.New("amounts must not be negative")
	ErrEmployeeID      = errors.New("employee id is required")
	ErrUnknownEmployee = errors.New("employee does not exist")
)
