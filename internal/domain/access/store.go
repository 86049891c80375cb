package access

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetRole(ctx context.Context, accountID string) (string, bool, error) {
	var raw string
	err := s.DB.QueryRow(ctx, "SELECT role FROM user_roles WHERE account_id = $1", accountID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

// CreateDefaultRole inserts the row only when none exists and reports whether
// this call created it.
func (s *Store) CreateDefaultRole(ctx context.Context, accountID string, role Role) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (account_id, role)
    VALUES ($1, $2)
    ON CONFLICT (account_id) DO NOTHING
  `, accountID, role.String())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpsertRole(ctx context.Context, accountID string, role Role) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (account_id, role)
    VALUES ($1, $2)
    ON CONFLICT (account_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
  `, accountID, role.String())
	return err
}

func (s *Store) ListRoles(ctx context.Context) ([]RoleAssignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.account_id, a.email, r.role, r.created_at
    FROM user_roles r
    JOIN accounts a ON a.id = r.account_id
    ORDER BY a.email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoleAssignment
	for rows.Next() {
		var item RoleAssignment
		var raw string
		if err := rows.Scan(&item.AccountID, &item.Email, &raw, &item.CreatedAt); err != nil {
			return nil, err
		}
		role, err := ParseRole(raw)
		if err != nil {
			role = RoleEmployee
		}
		item.Role = role
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetFlags(ctx context.Context) (Flags, bool, error) {
	var flags Flags
	err := s.DB.QueryRow(ctx, `
    SELECT view_employees, mark_attendance, manage_payroll, approve_transfers
    FROM system_config
    WHERE id = $1
  `, SystemConfigID).Scan(&flags.ViewEmployees, &flags.MarkAttendance, &flags.ManagePayroll, &flags.ApproveTransfers)
	if errors.Is(err, pgx.ErrNoRows) {
		return Flags{}, false, nil
	}
	if err != nil {
		return Flags{}, false, err
	}
	return flags, true, nil
}

// MergeFlags writes only the supplied fields. A missing row is created from
// defaults first so the merge always has a base.
func (s *Store) MergeFlags(ctx context.Context, patch FlagsPatch, defaults Flags) (Flags, error) {
	var flags Flags
	err := s.DB.QueryRow(ctx, `
    INSERT INTO system_config (id, view_employees, mark_attendance, manage_payroll, approve_transfers)
    VALUES ($1, COALESCE($2::boolean, $6::boolean), COALESCE($3::boolean, $7::boolean), COALESCE($4::boolean, $8::boolean), COALESCE($5::boolean, $9::boolean))
    ON CONFLICT (id) DO UPDATE SET
      view_employees = COALESCE($2::boolean, system_config.view_employees),
      mark_attendance = COALESCE($3::boolean, system_config.mark_attendance),
      manage_payroll = COALESCE($4::boolean, system_config.manage_payroll),
      approve_transfers = COALESCE($5::boolean, system_config.approve_transfers),
      updated_at = now()
    RETURNING view_employees, mark_attendance, manage_payroll, approve_transfers
  `, SystemConfigID,
		patch.ViewEmployees, patch.MarkAttendance, patch.ManagePayroll, patch.ApproveTransfers,
		defaults.ViewEmployees, defaults.MarkAttendance, defaults.ManagePayroll, defaults.ApproveTransfers,
	).Scan(&flags.ViewEmployees, &flags.MarkAttendance, &flags.ManagePayroll, &flags.ApproveTransfers)
	if err != nil {
		return Flags{}, err
	}
	return flags, nil
}
