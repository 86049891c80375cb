package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const taskColumns = `id::text, title, description, assigned_to, employee_name, assigned_by, due_date, status, employee_notes, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	var due time.Time
	var status string
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.AssignedTo, &task.EmployeeName, &task.AssignedBy,
		&due, &status, &task.EmployeeNotes, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	if err != nil {
		return Task{}, err
	}
	task.DueDate = due.Format(DateLayout)
	task.Status = Status(status)
	return task, nil
}

func (s *Store) Create(ctx context.Context, task Task) (Task, error) {
	return scanTask(s.DB.QueryRow(ctx, `
    INSERT INTO tasks (title, description, assigned_to, employee_name, assigned_by, due_date, status)
    VALUES ($1, $2, $3, $4, $5, $6::date, $7)
    RETURNING `+taskColumns,
		task.Title, task.Description, task.AssignedTo, task.EmployeeName, task.AssignedBy, task.DueDate, string(StatusPending)))
}

func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	return scanTask(s.DB.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (s *Store) List(ctx context.Context) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (s *Store) ListForAssignee(ctx context.Context, email string) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE lower(assigned_to) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (s *Store) Update(ctx context.Context, id string, status Status, notes string) (Task, error) {
	task, err := scanTask(s.DB.QueryRow(ctx, `
    UPDATE tasks
    SET status = $2, employee_notes = $3, updated_at = now()
    WHERE id = $1 AND status <> 'Completed'
    RETURNING `+taskColumns, id, string(status), notes))
	if !errors.Is(err, ErrTaskNotFound) {
		return task, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return Task{}, err
	}
	return Task{}, ErrTaskCompleted
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	defer rows.Close()
	var out []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}
