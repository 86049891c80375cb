package core

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrDuplicateEmployee = errors.New("an employee with this email already exists")
	ErrNameRequired      = errors.New("employee name is required")
	ErrEmailRequired     = errors.New("email is required to create an account")
)
