package core

import "context"

type StoreAPI interface {
	ListEmployees(ctx context.Context, search string) ([]Employee, error)
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	EmployeeByAccount(ctx context.Context, accountID string) (Employee, error)
	UnlinkedEmployeeByEmail(ctx context.Context, email string) (Employee, error)
	CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error)
	CreateEmployeeWithAccount(ctx context.Context, in EmployeeInput, passwordHash, role string) (Employee, error)
	UpdateEmployee(ctx context.Context, employeeID string, in EmployeeInput) (Employee, error)
	DeleteEmployee(ctx context.Context, employeeID string) error
	DepartmentCounts(ctx context.Context) ([]DepartmentCount, error)
}
