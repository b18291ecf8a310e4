package ports

import (
	"context"
	"time"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/notify"
)

// ArticleSource pulls candidate articles from upstream providers.
type ArticleSource interface {
	FetchLatest(ctx context.Context) ([]domain.Article, error)
}

// ArticleRepository persists articles and their enrichment. Find methods
// return (nil, nil) when no row matches.
type ArticleRepository interface {
	FindByURL(ctx context.Context, url string) (*domain.Article, error)
	FindByContentHash(ctx context.Context, hash string) (*domain.Article, error)
	// Insert persists a new article, filling ID and CreatedAt. It returns
	// false without error when the store's uniqueness constraint rejected the
	// row, which is how a concurrent duplicate ingestion surfaces.
	Insert(ctx context.Context, article *domain.Article) (bool, error)
	SaveEnrichment(ctx context.Context, enrichment *domain.Enrichment) error
}

// WatchlistRepository stores subscriber interest rules.
type WatchlistRepository interface {
	// Add registers a rule; a duplicate (user, kind, value) returns the
	// existing row unchanged.
	Add(ctx context.Context, item domain.WatchlistItem) (domain.WatchlistItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error)
	Delete(ctx context.Context, id int64, userID string) error
}

// MetricsRepository persists company fundamentals snapshots.
type MetricsRepository interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
	SaveMetrics(ctx context.Context, metrics domain.CompanyMetrics) error
}

// EventPublisher emits domain events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ItemEnrichedEvent) error
	Close() error
}

// Enricher produces structured signals for an article. It never fails;
// degraded analysis yields the neutral defaults.
type Enricher interface {
	Enrich(ctx context.Context, title, body string) domain.Enrichment
}

// MetricsProvider fetches company fundamentals from the markets API.
type MetricsProvider interface {
	FetchCompanyMetrics(ctx context.Context, symbol string) (domain.CompanyMetrics, error)
	// Remaining reports how many calls are left in today's budget.
	Remaining() int
}

// Dispatcher delivers a formatted notification for an evaluation outcome.
// It reports success; all failure modes are logged, never raised.
type Dispatcher interface {
	Dispatch(ctx context.Context, chatID string, ev domain.ItemEnrichedEvent, eval notify.Evaluation) bool
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
