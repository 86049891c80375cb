package reports

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// ListJobRuns returns background job history, newest first. An empty jobType
// lists every type.
func (s *Store) ListJobRuns(ctx context.Context, jobType string, limit, offset int) ([]JobRun, error) {
	query := `SELECT id::text, job_type, status, details_json, created_at, completed_at FROM job_runs`
	var args []any
	if jobType != "" {
		args = append(args, jobType)
		query += " WHERE job_type = $1"
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
