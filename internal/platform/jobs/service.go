package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	JobTaskAssignedEmail = "task_assigned_email"
	JobCleanup           = "cleanup"
)

type RunFunc func(context.Context) (any, error)

// CleanupFunc releases in-process state during cleanup and reports how many
// entries it dropped.
type CleanupFunc func(context.Context) int

type Service struct {
	DB              *pgxpool.Pool
	CleanupInterval time.Duration
	queue           chan job
	wg              sync.WaitGroup

	mu    sync.Mutex
	hooks map[string]CleanupFunc
}

type job struct {
	Type string
	Run  RunFunc
}

func New(db *pgxpool.Pool, cleanupInterval time.Duration) *Service {
	return &Service{
		DB:              db,
		CleanupInterval: cleanupInterval,
		queue:           make(chan job, 128),
		hooks:           map[string]CleanupFunc{},
	}
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
	if s.CleanupInterval > 0 {
		s.wg.Add(1)
		go s.scheduleCleanup(ctx, s.CleanupInterval)
	}
}

// OnCleanup runs fn on every cleanup; its count is reported under name.
func (s *Service) OnCleanup(name string, fn CleanupFunc) {
	s.mu.Lock()
	s.hooks[name] = fn
	s.mu.Unlock()
}

// Wait blocks until the worker and scheduler have returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(jobType string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1,$2)
      RETURNING id
    `, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"details": details, "error": err.Error()}
	}
	if runID == "" {
		return details, err
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if _, updErr := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); updErr != nil {
		slog.Warn("job run update failed", "err", updErr)
	}
	return details, err
}

func (s *Service) scheduleCleanup(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobCleanup, s.cleanup)
		}
	}
}

// cleanup drops sessions that ended a day ago and stale idempotency records,
// then runs the registered hooks.
func (s *Service) cleanup(ctx context.Context) (any, error) {
	details := map[string]any{}
	if s.DB != nil {
		sessions, err := s.DB.Exec(ctx, `
      DELETE FROM sessions
      WHERE expires_at < now() - interval '1 day'
         OR revoked_at < now() - interval '1 day'
    `)
		if err != nil {
			return nil, err
		}
		keys, err := s.DB.Exec(ctx, "DELETE FROM idempotency_keys WHERE created_at < now() - interval '1 day'")
		if err != nil {
			return nil, err
		}
		details["sessionsDeleted"] = sessions.RowsAffected()
		details["idempotencyKeysDeleted"] = keys.RowsAffected()
	}

	s.mu.Lock()
	hooks := make(map[string]CleanupFunc, len(s.hooks))
	for name, fn := range s.hooks {
		hooks[name] = fn
	}
	s.mu.Unlock()
	for name, fn := range hooks {
		details[name] = fn(ctx)
	}
	return details, nil
}
