package usecase

import (
	"context"
	"log/slog"
	"time"

	"StockNewsTracker/internal/ports"
)

// Scheduler wires the interval driver with the recurring pipeline passes.
type Scheduler struct {
	driver   ports.Scheduler
	ingestor *Ingestor
	sweep    *MetricsSweep
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring passes.
func NewScheduler(driver ports.Scheduler, ingestor *Ingestor, sweep *MetricsSweep, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, ingestor: ingestor, sweep: sweep, logger: logger}
}

// Start registers the passes with the driver. Both run on every trigger; a
// failing ingestion pass does not skip the fundamentals sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled pass triggered", "at", trigger.Format(time.RFC3339))
		if s.ingestor != nil {
			if err := s.ingestor.Run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("ingestion pass failed", "error", err)
			}
		}
		if s.sweep != nil {
			if err := s.sweep.Run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("fundamentals sweep failed", "error", err)
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
