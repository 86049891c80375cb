package recruitment

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

const postingColumns = `id::text, title, department, location, job_type, description, status, COALESCE(created_by::text, ''), created_at`

func scanPosting(row pgx.Row) (Posting, error) {
	var p Posting
	var status string
	err := row.Scan(&p.ID, &p.Title, &p.Department, &p.Location, &p.JobType, &p.Description, &status, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Posting{}, ErrPostingNotFound
	}
	p.Status = PostingStatus(status)
	return p, err
}

func (s *Store) CreatePosting(ctx context.Context, p Posting) (Posting, error) {
	return scanPosting(s.DB.QueryRow(ctx, `
    INSERT INTO job_postings (title, department, location, job_type, description, status, created_by)
    VALUES ($1, $2, $3, $4, $5, 'open', NULLIF($6, '')::uuid)
    RETURNING `+postingColumns, p.Title, p.Department, p.Location, p.JobType, p.Description, p.CreatedBy))
}

func (s *Store) GetPosting(ctx context.Context, id string) (Posting, error) {
	return scanPosting(s.DB.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id))
}

func (s *Store) ListPostings(ctx context.Context, onlyOpen bool) ([]Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM job_postings`
	if onlyOpen {
		query += ` WHERE status = 'open'`
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SetPostingStatus(ctx context.Context, id string, status PostingStatus) (Posting, error) {
	return scanPosting(s.DB.QueryRow(ctx, `UPDATE job_postings SET status = $2 WHERE id = $1 RETURNING `+postingColumns, id, string(status)))
}

func (s *Store) DeletePosting(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM job_postings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostingNotFound
	}
	return nil
}

const applicationColumns = `id::text, job_id::text, job_title, candidate_name, candidate_email, candidate_phone, resume_link, status, submitted_at`

func (s *Store) CreateApplication(ctx context.Context, app Application) (Application, error) {
	var out Application
	err := s.DB.QueryRow(ctx, `
    INSERT INTO applications (job_id, job_title, candidate_name, candidate_email, candidate_phone, resume_link, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING `+applicationColumns,
		app.JobID, app.JobTitle, app.CandidateName, app.CandidateEmail, app.CandidatePhone, app.ResumeLink, app.Status,
	).Scan(&out.ID, &out.JobID, &out.JobTitle, &out.CandidateName, &out.CandidateEmail, &out.CandidatePhone, &out.ResumeLink, &out.Status, &out.SubmittedAt)
	return out, err
}

// ListApplications returns every application when jobID is empty.
func (s *Store) ListApplications(ctx context.Context, jobID string) ([]Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	var args []any
	if jobID != "" {
		query += ` WHERE job_id = $1`
		args = append(args, jobID)
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY submitted_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.JobID, &app.JobTitle, &app.CandidateName, &app.CandidateEmail, &app.CandidatePhone, &app.ResumeLink, &app.Status, &app.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}
