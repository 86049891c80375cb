package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const employeeColumns = `id, name, department, employee_code, post, COALESCE(account_id::text, ''), COALESCE(email, ''), created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.Name, &emp.Department, &emp.EmployeeCode, &emp.Post, &emp.AccountID, &emp.Email, &emp.CreatedAt, &emp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

// ListEmployees returns newest first. search matches name, email or code,
// case-insensitively.
func (s *Store) ListEmployees(ctx context.Context, search string) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees"
	var args []any
	if term := strings.TrimSpace(search); term != "" {
		query += " WHERE name ILIKE $1 OR COALESCE(email, '') ILIKE $1 OR employee_code ILIKE $1"
		args = append(args, "%"+escapeLike(term)+"%")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", employeeID))
}

func (s *Store) EmployeeByAccount(ctx context.Context, accountID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE account_id = $1", accountID))
}

func (s *Store) EmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE lower(email) = lower($1)", email))
}

// UnlinkedEmployeeByEmail only matches records no account has claimed yet.
func (s *Store) UnlinkedEmployeeByEmail(ctx context.Context, email string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE lower(email) = lower($1) AND account_id IS NULL", email))
}

func (s *Store) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (name, department, employee_code, post, email)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING `+employeeColumns,
		in.Name, in.Department, in.EmployeeCode, in.Post, nullIfEmpty(in.Email)))
	return emp, mapUniqueViolation(err)
}

// CreateEmployeeWithAccount inserts the account, its role row and the linked
// employee in one transaction.
func (s *Store) CreateEmployeeWithAccount(ctx context.Context, in EmployeeInput, passwordHash, role string) (Employee, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Employee{}, err
	}
	defer tx.Rollback(ctx)

	var accountID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO accounts (email, password_hash)
    VALUES ($1, $2)
    RETURNING id
  `, in.Email, passwordHash).Scan(&accountID); err != nil {
		return Employee{}, mapUniqueViolation(err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO user_roles (account_id, role) VALUES ($1, $2)", accountID, role); err != nil {
		return Employee{}, fmt.Errorf("create role: %w", err)
	}
	emp, err := scanEmployee(tx.QueryRow(ctx, `
    INSERT INTO employees (name, department, employee_code, post, email, account_id)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING `+employeeColumns,
		in.Name, in.Department, in.EmployeeCode, in.Post, in.Email, accountID))
	if err != nil {
		return Employee{}, mapUniqueViolation(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employeeID string, in EmployeeInput) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET name = $2, department = $3, employee_code = $4, post = $5, email = $6, updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns,
		employeeID, in.Name, in.Department, in.EmployeeCode, in.Post, nullIfEmpty(in.Email)))
	return emp, mapUniqueViolation(err)
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE id = $1", employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DepartmentCounts(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT department, COUNT(1)
    FROM employees
    GROUP BY department
    ORDER BY COUNT(1) DESC, department
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentCount
	for rows.Next() {
		var item DepartmentCount
		if err := rows.Scan(&item.Department, &item.Count); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmployee
	}
	return err
}
