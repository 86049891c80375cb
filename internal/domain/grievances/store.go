package grievances

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

const grievanceColumns = `id::text, title, description, category, status, submitted_by::text, submitter_email,
  submitted_at, COALESCE(resolved_by::text, ''), resolved_at`

func scanGrievance(row pgx.Row) (Grievance, error) {
	var g Grievance
	var status string
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Category, &status, &g.SubmittedBy, &g.SubmitterEmail,
		&g.SubmittedAt, &g.ResolvedBy, &g.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grievance{}, ErrGrievanceNotFound
	}
	g.Status = Status(status)
	return g, err
}

func (s *Store) Create(ctx context.Context, g Grievance) (Grievance, error) {
	return scanGrievance(s.DB.QueryRow(ctx, `
    INSERT INTO grievances (title, description, category, status, submitted_by, submitter_email)
    VALUES ($1, $2, $3, 'pending', $4, $5)
    RETURNING `+grievanceColumns, g.Title, g.Description, g.Category, g.SubmittedBy, g.SubmitterEmail))
}

func (s *Store) List(ctx context.Context) ([]Grievance, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+grievanceColumns+` FROM grievances ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectGrievances(rows)
}

func (s *Store) ListBySubmitter(ctx context.Context, accountID string) ([]Grievance, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+grievanceColumns+` FROM grievances WHERE submitted_by = $1 ORDER BY submitted_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	return collectGrievances(rows)
}

func (s *Store) Resolve(ctx context.Context, id, resolvedBy string) (Grievance, error) {
	g, err := scanGrievance(s.DB.QueryRow(ctx, `
    UPDATE grievances
    SET status = 'resolved', resolved_by = NULLIF($2, '')::uuid, resolved_at = now()
    WHERE id = $1 AND status = 'pending'
    RETURNING `+grievanceColumns, id, resolvedBy))
	if !errors.Is(err, ErrGrievanceNotFound) {
		return g, err
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM grievances WHERE id = $1)`, id).Scan(&exists); err != nil {
		return Grievance{}, err
	}
	if !exists {
		return Grievance{}, ErrGrievanceNotFound
	}
	return Grievance{}, ErrAlreadyResolved
}

func collectGrievances(rows pgx.Rows) ([]Grievance, error) {
	defer rows.Close()
	var out []Grievance
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
