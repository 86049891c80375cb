package core

import "time"

// Employee is an HR record. It may or may not be linked to a sign-in account.
type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Department   string    `json:"department"`
	EmployeeCode string    `json:"employeeCode"`
	Post         string    `json:"post"`
	AccountID    string    `json:"accountId,omitempty"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type EmployeeInput struct {
	Name         string `json:"name"`
	Department   string `json:"department"`
	EmployeeCode string `json:"employeeCode"`
	Post         string `json:"post"`
	Email        string `json:"email"`
}

// NewAccount requests a sign-in account alongside the employee record.
type NewAccount struct {
	Password string `json:"password"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

type Headcount struct {
	Total          int               `json:"total"`
	Departments    []DepartmentCount `json:"departments"`
	LargestDept    string            `json:"largestDepartment"`
	LargestDeptLen int               `json:"largestDepartmentCount"`
}
