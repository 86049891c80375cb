package performance

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

const ratingColumns = `p.employee_id::text, p.rating, p.comment, COALESCE(p.rated_by::text, ''), p.updated_at`

func (s *Store) Upsert(ctx context.Context, rating Rating) (Rating, error) {
	var out Rating
	err := s.DB.QueryRow(ctx, `
    INSERT INTO performance AS p (employee_id, rating, comment, rated_by, updated_at)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, now())
    ON CONFLICT (employee_id)
    DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment,
                  rated_by = EXCLUDED.rated_by, updated_at = EXCLUDED.updated_at
    RETURNING `+ratingColumns,
		rating.EmployeeID, rating.Rating, rating.Comment, rating.RatedBy,
	).Scan(&out.EmployeeID, &out.Rating, &out.Comment, &out.RatedBy, &out.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return Rating{}, ErrUnknownEmployee
	}
	return out, err
}

func (s *Store) Get(ctx context.Context, employeeID string) (Rating, error) {
	var out Rating
	err := s.DB.QueryRow(ctx, `SELECT `+ratingColumns+` FROM performance p WHERE p.employee_id = $1`, employeeID).
		Scan(&out.EmployeeID, &out.Rating, &out.Comment, &out.RatedBy, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rating{}, ErrRatingNotFound
	}
	return out, err
}

func (s *Store) List(ctx context.Context) ([]Listed, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+ratingColumns+`, e.name, e.department
    FROM performance p
    JOIN employees e ON e.id = p.employee_id
    ORDER BY p.rating DESC, e.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listed
	for rows.Next() {
		var item Listed
		if err := rows.Scan(&item.EmployeeID, &item.Rating.Rating, &item.Comment, &item.RatedBy, &item.UpdatedAt, &item.EmployeeName, &item.Department); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
