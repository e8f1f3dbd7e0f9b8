package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"timebank/internal/platform/config"
)

const (
	JobReminders        = "workday_reminders"
	JobIdempotencyPrune = "idempotency_prune"

	idempotencyKeyTTL   = 24 * time.Hour
	idempotencyPruneGap = time.Hour
)

// KeyPruner drops replay records older than maxAge.
type KeyPruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

type Service struct {
	DB        *pgxpool.Pool
	Cfg       config.Config
	Reminders *Reminders
	Keys      KeyPruner
	Now       func() time.Time
	queue     chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, reminders *Reminders) *Service {
	return &Service{
		DB:        db,
		Cfg:       cfg,
		Reminders: reminders,
		Now:       time.Now,
		queue:     make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Reminders != nil && s.Cfg.ReminderInterval > 0 {
		go s.scheduleReminders(ctx, s.Cfg.ReminderInterval)
	}
	if s.Keys != nil {
		go s.schedule(ctx, JobIdempotencyPrune, idempotencyPruneGap, s.pruneRun)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// RunReminders runs one reminder pass synchronously.
func (s *Service) RunReminders(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobReminders, s.reminderRun)
}

func (s *Service) reminderRun(ctx context.Context) (any, error) {
	return s.Reminders.Run(ctx, s.Now(), s.Cfg.ReminderInterval)
}

func (s *Service) pruneRun(ctx context.Context) (any, error) {
	removed, err := s.Keys.Prune(ctx, idempotencyKeyTTL)
	return map[string]int64{"removed": removed}, err
}

func (s *Service) worker(ctx context.Context) {
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

// runJob executes j and records it in job_runs when a database is configured.
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

func (s *Service) scheduleReminders(ctx context.Context, interval time.Duration) {
	s.schedule(ctx, JobReminders, interval, s.reminderRun)
}

func (s *Service) schedule(ctx context.Context, jobType string, interval time.Duration, run func(context.Context) (any, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(jobType, run)
		}
	}
}
