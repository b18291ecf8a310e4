package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"StockNewsTracker/internal/dedup"
	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/metrics"
	"StockNewsTracker/internal/ports"
)

// Ingestor runs one pass of the pipeline: fetch candidates, deduplicate,
// persist, enrich and publish. Re-running a pass over the same inputs never
// produces a second stored row or a second event for the same article.
type Ingestor struct {
	source    ports.ArticleSource
	repo      ports.ArticleRepository
	dedup     *dedup.Engine
	enricher  ports.Enricher
	publisher ports.EventPublisher
	producer  string
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewIngestor wires the pipeline stages together.
func NewIngestor(
	source ports.ArticleSource,
	repo ports.ArticleRepository,
	engine *dedup.Engine,
	enricher ports.Enricher,
	publisher ports.EventPublisher,
	producer string,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Ingestor {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		source:    source,
		repo:      repo,
		dedup:     engine,
		enricher:  enricher,
		publisher: publisher,
		producer:  producer,
		recorder:  recorder,
		logger:    logger.With("component", "ingestor"),
	}
}

// Run fetches the latest candidates and processes each one independently so a
// failing article cannot block the rest of the batch.
func (i *Ingestor) Run(ctx context.Context) error {
	articles, err := i.source.FetchLatest(ctx)
	if err != nil {
		return fmt.Errorf("fetch latest: %w", err)
	}
	i.logger.Info("ingestion pass started", "candidates", len(articles))

	var stored int
	for _, article := range articles {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ok, err := i.ProcessArticle(ctx, article)
		if err != nil {
			i.logger.Error("article skipped", "url", article.URL, "error", err)
			continue
		}
		if ok {
			stored++
		}
	}

	i.logger.Info("ingestion pass finished", "candidates", len(articles), "stored", stored)
	return nil
}

// ProcessArticle takes one candidate through dedup, persistence, enrichment
// and publishing. It reports whether a new row was stored. Enrichment-save and
// publish failures are logged and swallowed: the article itself is already
// durable and must not be lost or re-ingested because a downstream stage
// hiccuped.
func (i *Ingestor) ProcessArticle(ctx context.Context, article domain.Article) (bool, error) {
	if article.URL == "" || article.Title == "" {
		return false, fmt.Errorf("article missing url or title")
	}
	if article.ContentHash == "" {
		article.ContentHash = dedup.Fingerprint(article.Title, article.Summary)
	}

	decision, _, err := i.dedup.Admit(ctx, article)
	if err != nil {
		return false, fmt.Errorf("dedup: %w", err)
	}
	if decision != dedup.New {
		i.recorder.RecordDuplicate(decision.String())
		i.logger.Debug("duplicate dropped", "url", article.URL, "reason", decision.String())
		return false, nil
	}

	inserted, err := i.repo.Insert(ctx, &article)
	if err != nil {
		return false, fmt.Errorf("insert: %w", err)
	}
	if !inserted {
		// Another process won the check-then-insert race.
		i.recorder.RecordDuplicate(dedup.DuplicateByKey.String())
		i.logger.Debug("duplicate dropped by constraint", "url", article.URL)
		return false, nil
	}
	i.recorder.RecordIngested()

	enrichment := i.enricher.Enrich(ctx, article.Title, article.Summary)
	enrichment.ArticleID = article.ID
	if err := i.repo.SaveEnrichment(ctx, &enrichment); err != nil {
		i.logger.Error("enrichment not saved", "item_id", article.ID, "error", err)
	}

	ev := domain.NewItemEnrichedEvent(article, &enrichment, i.producer)
	if err := i.publisher.Publish(ctx, ev); err != nil {
		i.recorder.RecordPublishFailure()
		i.logger.Error("event not published", "item_id", article.ID, "error", err)
		return true, nil
	}
	i.recorder.RecordPublished()
	return true, nil
}
