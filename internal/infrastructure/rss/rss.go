package rss

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mmcdole/gofeed"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/scanner"
)

const defaultMaxItems = 20

// Scanner reads RSS/Atom feeds as an article source.
type Scanner struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ scanner.Scanner = (*Scanner)(nil)

// NewScanner builds an RSS source strategy.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{parser: gofeed.NewParser(), logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *Scanner) Name() string {
	return "rss"
}

// Scan parses the feed and returns up to max_articles items.
func (s *Scanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	feed, err := s.parser.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("site %s: parse feed: %w", req.SiteName, err)
	}

	max := defaultMaxItems
	if raw := req.Options["max_articles"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			max = n
		}
	}

	var results []domain.Article
	for _, item := range feed.Items {
		if len(results) >= max {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		results = append(results, domain.Article{
			Title:       item.Title,
			URL:         item.Link,
			Summary:     item.Description,
			Source:      req.SiteName,
			PublishedAt: item.Published,
		})
	}

	s.logger.Debug("feed scanned", "site", req.SiteName, "articles", len(results))
	return results, nil
}
