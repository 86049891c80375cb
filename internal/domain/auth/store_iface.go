package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, accountID string) (Account, error)
	CreateAccount(ctx context.Context, email, passwordHash string) (string, error)
	CreateSession(ctx context.Context, accountID, tokenHash string, expires time.Time) (string, error)
	SessionActive(ctx context.Context, sessionID, accountID string) (bool, error)
	RevokeSession(ctx context.Context, sessionID string) error
	TouchLastLogin(ctx context.Context, accountID string) error
	StoreMFASecret(ctx context.Context, accountID string, sealed []byte) error
	SetMFAEnabled(ctx context.Context, accountID string, enabled bool) error
}
