package attendance

import "context"

type StoreAPI interface {
	Upsert(ctx context.Context, entry Entry) (Entry, error)
	Delete(ctx context.Context, date, employeeID string) (bool, error)
	Get(ctx context.Context, date, employeeID string) (Entry, error)
	ForDate(ctx context.Context, date string) ([]Entry, error)
	History(ctx context.Context, employeeID string, limit int) ([]Entry, error)
}
