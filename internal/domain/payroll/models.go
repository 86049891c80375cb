package payroll

import "time"

// Record is the monthly compensation of one employee. There is at most one
// per employee and writes overwrite it.
type Record struct {
	EmployeeID string    `json:"employeeId"`
	Basic      float64   `json:"basic"`
	DA         float64   `json:"da"`
	HRA        float64   `json:"hra"`
	Total      float64   `json:"total"`
	UpdatedBy  string    `json:"updatedBy,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Annual is the yearly figure shown next to the monthly total.
func (r Record) Annual() float64 {
	return roundCents(r.Total * MonthsPerYear)
}

type Input struct {
	Basic float64 `json:"basic"`
	DA    float64 `json:"da"`
	HRA   float64 `json:"hra"`
}

// Listed pairs a record with the employee it belongs to.
type Listed struct {
	Record
	EmployeeName string  `json:"employeeName"`
	Department   string  `json:"department"`
	AnnualTotal  float64 `json:"annual"`
}

type PayslipData struct {
	Record
	EmployeeName string
	EmployeeCode string
	Department   string
	Post         string
	Email        string
}
