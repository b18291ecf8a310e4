package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"StockNewsTracker/internal/ports"
)

// IntervalScheduler runs the job immediately on start and then on every tick
// of a fixed interval, reporting times in the configured location.
type IntervalScheduler struct {
	interval time.Duration
	location *time.Location
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// New builds a scheduler; a nil location defaults to UTC.
func New(interval time.Duration, location *time.Location, logger *slog.Logger) *IntervalScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntervalScheduler{interval: interval, location: location, logger: logger}
}

// Start launches the tick loop. The job runs once right away so a fresh
// deployment does not wait a full interval for its first sweep.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		job(time.Now().In(s.location))
		for {
			select {
			case <-runCtx.Done():
				s.logger.Info("scheduler stopped")
				return
			case t := <-ticker.C:
				job(t.In(s.location))
			}
		}
	}()

	s.logger.Info("scheduler started", "interval", s.interval, "timezone", s.location.String())
	return nil
}

// Stop cancels the loop and waits for the in-flight job, bounded by ctx.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
