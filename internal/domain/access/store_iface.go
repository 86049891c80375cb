package access

import "context"

type StoreAPI interface {
	GetRole(ctx context.Context, accountID string) (raw string, found bool, err error)
	CreateDefaultRole(ctx context.Context, accountID string, role Role) (bool, error)
	UpsertRole(ctx context.Context, accountID string, role Role) error
	ListRoles(ctx context.Context) ([]RoleAssignment, error)
	GetFlags(ctx context.Context) (Flags, bool, error)
	MergeFlags(ctx context.Context, patch FlagsPatch, defaults Flags) (Flags, error)
}
