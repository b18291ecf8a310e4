package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"StockNewsTracker/internal/ports"
	"StockNewsTracker/internal/remote"
)

// MetricsSweep refreshes fundamentals for every active symbol. Calls are paced
// to one per second so a large universe does not burst against the provider,
// and the sweep stops early once the daily budget runs out.
type MetricsSweep struct {
	repo     ports.MetricsRepository
	provider ports.MetricsProvider
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewMetricsSweep wires the store and the provider.
func NewMetricsSweep(repo ports.MetricsRepository, provider ports.MetricsProvider, logger *slog.Logger) *MetricsSweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsSweep{
		repo:     repo,
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(1), 1),
		logger:   logger.With("component", "metrics_sweep"),
	}
}

// Run fetches and stores one snapshot per active symbol.
func (s *MetricsSweep) Run(ctx context.Context) error {
	symbols, err := s.repo.ActiveSymbols(ctx)
	if err != nil {
		return fmt.Errorf("list active symbols: %w", err)
	}
	if len(symbols) == 0 {
		s.logger.Info("no active symbols to refresh")
		return nil
	}

	// Each symbol needs a handful of endpoint calls; skip the sweep entirely
	// when the remaining budget cannot cover even one symbol.
	if s.provider.Remaining() < 4 {
		s.logger.Warn("fundamentals sweep skipped, daily budget nearly exhausted",
			"remaining", s.provider.Remaining())
		return nil
	}

	var refreshed int
	for _, symbol := range symbols {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		m, err := s.provider.FetchCompanyMetrics(ctx, symbol)
		if errors.Is(err, remote.ErrRateLimited) {
			s.logger.Warn("fundamentals sweep halted, daily budget exhausted",
				"refreshed", refreshed, "pending", len(symbols)-refreshed)
			return nil
		}
		if err != nil {
			s.logger.Error("fundamentals fetch failed", "symbol", symbol, "error", err)
			continue
		}
		if len(m.Errors) > 0 {
			s.logger.Warn("fundamentals partially fetched", "symbol", symbol, "errors", m.Errors)
		}

		if err := s.repo.SaveMetrics(ctx, m); err != nil {
			s.logger.Error("fundamentals not saved", "symbol", symbol, "error", err)
			continue
		}
		refreshed++
	}

	s.logger.Info("fundamentals sweep finished", "symbols", len(symbols), "refreshed", refreshed)
	return nil
}
