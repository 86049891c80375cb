package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/access"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

// Seed makes sure the singleton configuration row exists and, when
// configured, that a bootstrap administrator can sign in.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureSystemConfig(ctx, pool); err != nil {
		return err
	}
	return ensureAdminAccount(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureSystemConfig(ctx context.Context, pool *pgxpool.Pool) error {
	defaults := access.DefaultFlags()
	_, err := pool.Exec(ctx, `
    INSERT INTO system_config (id, view_employees, mark_attendance, manage_payroll, approve_transfers)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (id) DO NOTHING
  `, access.SystemConfigID, defaults.ViewEmployees, defaults.MarkAttendance, defaults.ManagePayroll, defaults.ApproveTransfers)
	return err
}

func ensureAdminAccount(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = auth.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM accounts WHERE email = $1", email).Scan(&id)
	if err != nil {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		if err := pool.QueryRow(ctx, `
      INSERT INTO accounts (email, password_hash)
      VALUES ($1, $2)
      RETURNING id
    `, email, hash).Scan(&id); err != nil {
			return err
		}
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO user_roles (account_id, role)
    VALUES ($1, $2)
    ON CONFLICT (account_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
  `, id, access.RoleAdmin.String())
	return err
}
