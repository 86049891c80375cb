package payroll

const (
	CollectionPayroll = "payroll"

	MonthsPerYear = 12

	payslipMonthLayout = "January 2006"
)
