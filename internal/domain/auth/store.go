package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (Account, error) {
	var out Account
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, status, mfa_enabled, mfa_secret_enc
    FROM accounts
    WHERE email = $1
  `, email).Scan(&out.ID, &out.Email, &out.PasswordHash, &out.Status, &out.MFAEnabled, &out.MFASecretEnc)
	return out, err
}

func (s *Store) AccountByID(ctx context.Context, accountID string) (Account, error) {
	var out Account
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, status, mfa_enabled, mfa_secret_enc
    FROM accounts
    WHERE id = $1
  `, accountID).Scan(&out.ID, &out.Email, &out.PasswordHash, &out.Status, &out.MFAEnabled, &out.MFASecretEnc)
	return out, err
}

func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO accounts (email, password_hash)
    VALUES ($1, $2)
    RETURNING id
  `, email, passwordHash).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrEmailTaken
	}
	return id, err
}

func (s *Store) CreateSession(ctx context.Context, accountID, tokenHash string, expires time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sessions (account_id, token_hash, expires_at)
    VALUES ($1, $2, $3)
    RETURNING id
  `, accountID, tokenHash, expires).Scan(&id)
	return id, err
}

func (s *Store) SessionActive(ctx context.Context, sessionID, accountID string) (bool, error) {
	var active bool
	err := s.DB.QueryRow(ctx, `
    SELECT expires_at > now() AND revoked_at IS NULL
    FROM sessions
    WHERE id = $1 AND account_id = $2
  `, sessionID, accountID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return active, err
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", sessionID)
	return err
}

func (s *Store) TouchLastLogin(ctx context.Context, accountID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE accounts SET last_login = now() WHERE id = $1", accountID)
	return err
}

func (s *Store) StoreMFASecret(ctx context.Context, accountID string, sealed []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE accounts SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", sealed, accountID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, accountID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE accounts SET mfa_enabled = $1 WHERE id = $2", enabled, accountID)
	return err
}
