package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

// Scheduler wires the interval driver with the cycle use case.
type Scheduler struct {
	driver    ports.Scheduler
	cycle     *Cycle
	maxCycles int
	logger    *slog.Logger
	location  *time.Location

	once sync.Once
	done chan struct{}
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLocation logs trigger times in loc instead of UTC.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewScheduler returns a helper to start/stop recurring cycles. maxCycles <= 0
// runs until stopped.
func NewScheduler(driver ports.Scheduler, cycle *Cycle, maxCycles int, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		driver:    driver,
		cycle:     cycle,
		maxCycles: maxCycles,
		logger:    logger,
		location:  time.UTC,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the cycle with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	var runs int
	job := func(jobCtx context.Context, trigger time.Time) {
		if s.finished() {
			return
		}
		trigger = trigger.In(s.location)
		if s.logger != nil {
			s.logger.Info("cycle triggered", "trigger", trigger, "run", runs+1)
		}
		_, err := s.cycle.Run(jobCtx)
		runs++

		var pe *domain.PersistenceError
		switch {
		case errors.As(err, &pe):
			s.warn("cycle aborted by storage failure", "trigger", trigger, "error", err)
		case err != nil:
			s.warn("cycle failed", "trigger", trigger, "error", err)
		}

		if s.maxCycles > 0 && runs >= s.maxCycles {
			s.close()
		}
	}

	return s.driver.Start(ctx, job)
}

// Done is closed once maxCycles cycles have completed.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Scheduler) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
