package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/domain"
)

// StrategySource aggregates candidate articles from all configured sites by
// dispatching each to its registered scanner strategy. A failing site is
// logged and skipped so one dead source cannot starve the rest.
type StrategySource struct {
	registry *Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(registry *Registry, sites []config.SiteConfig, logger *slog.Logger) *StrategySource {
	if logger == nil {
		logger = slog.Default()
	}
	return &StrategySource{registry: registry, sites: sites, logger: logger}
}

// FetchLatest iterates over configured sites and executes their scanners.
func (s *StrategySource) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	var aggregated []domain.Article
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			s.logger.Error("site skipped", "site", site.Name, "error", err)
			continue
		}

		results, err := strategy.Scan(ctx, Request{
			SiteName: site.Name,
			URL:      site.URL,
			Options:  site.Options,
		})
		if err != nil {
			s.logger.Error("scan failed", "site", site.Name, "error", err)
			continue
		}

		for i := range results {
			if results[i].Source == "" {
				results[i].Source = site.Name
			}
		}
		s.logger.Debug("site produced articles", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	return aggregated, nil
}
