// Package worker runs the digest on a cron schedule and serves health and
// metrics for the long-running process.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler triggers Job on the configured schedule. Overlapping triggers
// are skipped while a run is still in progress.
type Scheduler struct {
	cfg     WorkerConfig
	job     Job
	metrics *WorkerMetrics
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for job.
func NewScheduler(cfg WorkerConfig, job Job, metrics *WorkerMetrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, job: job, metrics: metrics, logger: logger}
}

// RunOnce executes the job under RunTimeout and records its outcome.
// It returns false when another run is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.metrics.RecordJobRun("skipped")
		s.logger.Warn("digest run still in progress, skipping trigger")
		return false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	s.metrics.RecordJobRun("started")
	s.logger.Info("scheduled digest run started")

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	err := s.runSafely(runCtx)
	s.metrics.RecordJobDuration(time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordJobRun("failure")
		s.logger.Error("scheduled digest run failed",
			slog.Any("error", err),
			slog.Duration("duration", time.Since(start)))
		return true
	}

	s.metrics.RecordJobRun("success")
	s.metrics.RecordLastSuccess()
	s.logger.Info("scheduled digest run completed", slog.Duration("duration", time.Since(start)))
	return true
}

func (s *Scheduler) runSafely(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("digest run panicked: %v", r)
		}
	}()
	return s.job(ctx)
}

// Start schedules the job and blocks until ctx is cancelled, then waits for
// a run in progress to finish. ready is called once the schedule is active.
func (s *Scheduler) Start(ctx context.Context, ready func()) error {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.cfg.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	entryID, err := c.AddFunc(s.cfg.CronSchedule, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	next := c.Entry(entryID).Next
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone),
		slog.Time("next_run", next))
	if ready != nil {
		ready()
	}

	var initial sync.WaitGroup
	if s.cfg.RunOnStart {
		initial.Add(1)
		go func() {
			defer initial.Done()
			s.RunOnce(ctx)
		}()
	}

	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-c.Stop().Done()
	initial.Wait()
	return nil
}
