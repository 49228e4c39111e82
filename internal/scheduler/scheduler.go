// Package scheduler re-runs the pipeline on a fixed interval in serve mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Runner is one complete pipeline run.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers a Runner immediately and then every interval. Runs never
// overlap; a tick that fires while a run is in progress is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler in UTC.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		logger:    logger,
	}
}

// Start registers the refresh job and starts the scheduler in the background.
// Runs use ctx, so cancelling it aborts an in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("start scheduler: refresh interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.logger.Info("scheduled refresh started")
		if err := s.runner.Run(ctx); err != nil {
			s.logger.Error("scheduled refresh failed", "error", err)
			return
		}
		s.logger.Info("scheduled refresh complete")
	})
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
