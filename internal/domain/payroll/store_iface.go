package payroll

import "context"

type StoreAPI interface {
	Upsert(ctx context.Context, record Record) (Record, error)
	Get(ctx context.Context, employeeID string) (Record, error)
	List(ctx context.Context) ([]Listed, error)
	PayslipData(ctx context.Context, employeeID string) (PayslipData, error)
}
