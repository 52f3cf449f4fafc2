// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/logging"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs. A run that is still going when its
// next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logging.Logger
	timeout time.Duration
}

// New creates a scheduler evaluating schedules in loc. Each run gets a
// context bounded by timeout; zero means no bound.
func New(logger *logging.Logger, loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.With("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		logger:  logger,
		timeout: timeout,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// AddJob registers job under a cron expression. The seconds field is optional:
//   - "0 15 2 * * *"  - 02:15:00 every day
//   - "@daily"        - midnight
//   - "@every 6h"     - every six hours
func (s *Scheduler) AddJob(spec string, job Job) error {
	schedule, err := config.ParseSchedule(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, job.Name(), err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		_ = s.RunNow(job)
	}))

	s.logger.Info("Job registered", "schedule", spec, "job", job.Name(),
		"next", schedule.Next(time.Now()).Format(time.RFC3339))
	return nil
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Debug("Running job", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Job failed", "job", job.Name(), "error", err, "elapsed", time.Since(start))
		return err
	}
	s.logger.Info("Job completed", "job", job.Name(), "elapsed", time.Since(start))
	return nil
}

// cronLogger adapts logging.Logger to cron.Logger
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
