// Package scheduler runs the periodic completion sweep that moves attended
// reservations to Completed.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"gymslot/internal/logger"
	"gymslot/internal/metrics"

	"github.com/go-co-op/gocron/v2"
)

const (
	DefaultInterval = 15 * time.Minute
	sweepJobName    = "reservation-completion-sweep"
)

type Completer interface {
	CompleteElapsed(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron      gocron.Scheduler
	completer Completer
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(completer Completer, interval time.Duration, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron,
		completer: completer,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start registers the sweep and starts the scheduler. The first sweep runs
// immediately.
func (s *Scheduler) Start() error {
	job, err := s.cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.RunOnce(s.ctx) }),
		gocron.WithName(sweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule completion sweep: %w", err)
	}

	s.cron.Start()
	logger.Info("completion sweep scheduled", "job_id", job.ID().String(), "interval", s.interval.String())
	return nil
}

// RunOnce performs a single sweep and returns how many reservations were
// completed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	completed, err := s.completer.CompleteElapsed(ctx)
	if completed > 0 {
		metrics.RecordSweepCompleted(completed)
	}
	if err != nil {
		logger.Error("completion sweep failed", "completed", completed, "error", err)
		return completed
	}

	logger.Debug("completion sweep finished", "completed", completed)
	return completed
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	logger.Info("completion sweep stopped")
	return nil
}
