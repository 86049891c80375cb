package attendance

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

const entryColumns = `attendance_date, employee_id::text, status, COALESCE(marked_by::text, ''), marked_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var date time.Time
	var status string
	if err := row.Scan(&date, &entry.EmployeeID, &status, &entry.MarkedBy, &entry.MarkedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	entry.Date = date.Format(DateLayout)
	entry.Status = Status(status)
	return entry, nil
}

// Upsert writes the entry for (date, employee), replacing any earlier status.
func (s *Store) Upsert(ctx context.Context, entry Entry) (Entry, error) {
	saved, err := scanEntry(s.DB.QueryRow(ctx, `
    INSERT INTO attendance (attendance_date, employee_id, status, marked_by, marked_at)
    VALUES ($1::date, $2, $3, NULLIF($4, '')::uuid, now())
    ON CONFLICT (attendance_date, employee_id)
    DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at
    RETURNING `+entryColumns, entry.Date, entry.EmployeeID, string(entry.Status), entry.MarkedBy))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return Entry{}, ErrUnknownEmployee
	}
	return saved, err
}

func (s *Store) Delete(ctx context.Context, date, employeeID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM attendance WHERE attendance_date = $1::date AND employee_id = $2`, date, employeeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) Get(ctx context.Context, date, employeeID string) (Entry, error) {
	return scanEntry(s.DB.QueryRow(ctx, `SELECT `+entryColumns+` FROM attendance WHERE attendance_date = $1::date AND employee_id = $2`, date, employeeID))
}

func (s *Store) ForDate(ctx context.Context, date string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+entryColumns+` FROM attendance WHERE attendance_date = $1::date`, date)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// History returns newest first. A non-positive limit returns every entry.
func (s *Store) History(ctx context.Context, employeeID string, limit int) ([]Entry, error) {
	var max any
	if limit > 0 {
		max = limit
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+`
    FROM attendance
    WHERE employee_id = $1
    ORDER BY attendance_date DESC
    LIMIT $2
  `, employeeID, max)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
