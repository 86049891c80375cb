package transfers

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

const requestColumns = `id::text, employee_id::text, employee_name, from_department, to_department, reason, status,
  requested_by::text, requested_at, COALESCE(decided_by::text, ''), decided_at`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var status string
	err := row.Scan(&req.ID, &req.EmployeeID, &req.EmployeeName, &req.FromDepartment, &req.ToDepartment, &req.Reason, &status,
		&req.RequestedBy, &req.RequestedAt, &req.DecidedBy, &req.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrTransferNotFound
	}
	req.Status = Status(status)
	return req, err
}

func (s *Store) Create(ctx context.Context, req Request) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO transfers (employee_id, employee_name, from_department, to_department, reason, status, requested_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING `+requestColumns,
		req.EmployeeID, req.EmployeeName, req.FromDepartment, req.ToDepartment, req.Reason, string(StatusPending), req.RequestedBy))
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM transfers WHERE id = $1`, id))
}

func (s *Store) List(ctx context.Context) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+` FROM transfers ORDER BY requested_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+` FROM transfers WHERE employee_id = $1 ORDER BY requested_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *Store) Decide(ctx context.Context, id string, status Status, decidedBy string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE transfers
    SET status = $2, decided_by = NULLIF($3, '')::uuid, decided_at = now()
    WHERE id = $1 AND status = 'pending'
    RETURNING `+requestColumns, id, string(status), decidedBy))
	if !errors.Is(err, ErrTransferNotFound) {
		return req, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return Request{}, err
	}
	return Request{}, ErrInvalidTransition
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	defer rows.Close()
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
