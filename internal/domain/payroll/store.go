package payroll

import (
	"context"
	"errors"

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

const recordColumns = `p.employee_id::text, p.basic, p.da, p.hra, p.total, COALESCE(p.updated_by::text, ''), p.updated_at`

func (s *Store) Upsert(ctx context.Context, record Record) (Record, error) {
	var out Record
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll AS p (employee_id, basic, da, hra, total, updated_by, updated_at)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, now())
    ON CONFLICT (employee_id)
    DO UPDATE SET basic = EXCLUDED.basic, da = EXCLUDED.da, hra = EXCLUDED.hra,
                  total = EXCLUDED.total, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
    RETURNING `+recordColumns,
		record.EmployeeID, record.Basic, record.DA, record.HRA, record.Total, record.UpdatedBy,
	).Scan(&out.EmployeeID, &out.Basic, &out.DA, &out.HRA, &out.Total, &out.UpdatedBy, &out.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return Record{}, ErrUnknownEmployee
	}
	return out, err
}

func (s *Store) Get(ctx context.Context, employeeID string) (Record, error) {
	var out Record
	err := s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM payroll p WHERE p.employee_id = $1`, employeeID).
		Scan(&out.EmployeeID, &out.Basic, &out.DA, &out.HRA, &out.Total, &out.UpdatedBy, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return out, err
}

func (s *Store) List(ctx context.Context) ([]Listed, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`, e.name, e.department
    FROM payroll p
    JOIN employees e ON e.id = p.employee_id
    ORDER BY e.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listed
	for rows.Next() {
		var item Listed
		if err := rows.Scan(&item.EmployeeID, &item.Basic, &item.DA, &item.HRA, &item.Total, &item.UpdatedBy, &item.UpdatedAt, &item.EmployeeName, &item.Department); err != nil {
			return nil, err
		}
		item.AnnualTotal = item.Annual()
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) PayslipData(ctx context.Context, employeeID string) (PayslipData, error) {
	var data PayslipData
	err := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`, e.name, e.employee_code, e.department, e.post, COALESCE(e.email, '')
    FROM payroll p
    JOIN employees e ON e.id = p.employee_id
    WHERE p.employee_id = $1
  `, employeeID).Scan(&data.EmployeeID, &data.Basic, &data.DA, &data.HRA, &data.Total, &data.UpdatedBy, &data.UpdatedAt,
		&data.EmployeeName, &data.EmployeeCode, &data.Department, &data.Post, &data.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayslipData{}, ErrRecordNotFound
	}
	return data, err
}
