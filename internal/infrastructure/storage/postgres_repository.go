package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"StockNewsTracker/internal/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{"id", "title", "url", "summary", "source", "content_hash", "published_date", "created_at"}

// PostgresRepository persists articles, enrichment results, watchlist rules
// and fundamentals snapshots.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByURL returns the article with the given natural key, or (nil, nil).
func (r *PostgresRepository) FindByURL(ctx context.Context, url string) (*domain.Article, error) {
	return r.findArticle(ctx, sq.Eq{"url": url})
}

// FindByContentHash returns the article with the given fingerprint, or
// (nil, nil).
func (r *PostgresRepository) FindByContentHash(ctx context.Context, hash string) (*domain.Article, error) {
	return r.findArticle(ctx, sq.Eq{"content_hash": hash})
}

func (r *PostgresRepository) findArticle(ctx context.Context, pred sq.Eq) (*domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a domain.Article
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&a.ID, &a.Title, &a.URL, &a.Summary, &a.Source, &a.ContentHash, &a.PublishedAt, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return &a, nil
}

// Insert persists a new article, filling ID and CreatedAt. A uniqueness
// violation on the URL returns (false, nil): the store is the authority on
// concurrent duplicate ingestion.
func (r *PostgresRepository) Insert(ctx context.Context, article *domain.Article) (bool, error) {
	query, args, err := psql.Insert("articles").
		Columns("title", "url", "summary", "source", "content_hash", "published_date").
		Values(article.Title, article.URL, article.Summary, article.Source, article.ContentHash, article.PublishedAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	return true, nil
}

// SaveEnrichment attaches the enrichment to its article. An existing row is
// left untouched: a new enrichment never overwrites an old one.
func (r *PostgresRepository) SaveEnrichment(ctx context.Context, enrichment *domain.Enrichment) error {
	entities, err := json.Marshal(enrichment.KeyEntities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	query, args, err := psql.Insert("ai_analysis").
		Columns("article_id", "summary", "category", "sentiment_score", "sentiment_text",
			"impact_score", "impact_text", "key_entities", "rationale", "raw_analysis").
		Values(enrichment.ArticleID, enrichment.Summary, enrichment.Category,
			enrichment.SentimentScore, enrichment.SentimentText,
			enrichment.ImpactScore, enrichment.ImpactText,
			string(entities), enrichment.Rationale, enrichment.Raw).
		Suffix("ON CONFLICT (article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert enrichment: %w", err)
	}
	return nil
}

// Add registers a watchlist rule; a duplicate (user, kind, value) returns the
// existing row unchanged.
func (r *PostgresRepository) Add(ctx context.Context, item domain.WatchlistItem) (domain.WatchlistItem, error) {
	query, args, err := psql.Select("id", "user_id", "item_type", "item_value", "created_at").
		From("watchlist_items").
		Where(sq.Eq{"user_id": item.UserID, "item_type": string(item.Kind), "item_value": item.Value}).
		Limit(1).
		ToSql()
	if err != nil {
		return item, fmt.Errorf("build query: %w", err)
	}

	var existing domain.WatchlistItem
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&existing.ID, &existing.UserID, &existing.Kind, &existing.Value, &existing.CreatedAt)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return item, fmt.Errorf("lookup watchlist item: %w", err)
	}

	query, args, err = psql.Insert("watchlist_items").
		Columns("user_id", "item_type", "item_value").
		Values(item.UserID, string(item.Kind), item.Value).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return item, fmt.Errorf("build insert: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.ID, &item.CreatedAt); err != nil {
		return item, fmt.Errorf("insert watchlist item: %w", err)
	}
	return item, nil
}

// ListByUser returns all rules for a subscriber.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	query, args, err := psql.Select("id", "user_id", "item_type", "item_value", "created_at").
		From("watchlist_items").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var items []domain.WatchlistItem
	for rows.Next() {
		var item domain.WatchlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Kind, &item.Value, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

// Delete removes a rule owned by the subscriber.
func (r *PostgresRepository) Delete(ctx context.Context, id int64, userID string) error {
	query, args, err := psql.Delete("watchlist_items").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete watchlist item: %w", err)
	}
	return nil
}

// ActiveSymbols lists the symbols the metrics sweep should refresh.
func (r *PostgresRepository) ActiveSymbols(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("symbol").
		From("companies").
		Where(sq.Eq{"is_active": true}).
		OrderBy("symbol").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return symbols, nil
}

// SaveMetrics appends one fundamentals snapshot.
func (r *PostgresRepository) SaveMetrics(ctx context.Context, m domain.CompanyMetrics) error {
	errNotes, err := json.Marshal(m.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	query, args, err := psql.Insert("company_metrics").
		Columns("symbol", "company_name", "sector", "industry", "market_cap",
			"pe_ratio", "pb_ratio", "debt_to_equity", "roe",
			"revenue", "net_income", "eps", "fetched_at", "fetch_errors").
		Values(m.Symbol, m.CompanyName, m.Sector, m.Industry, m.MarketCap,
			m.PERatio, m.PBRatio, m.DebtToEquity, m.ROE,
			m.Revenue, m.NetIncome, m.EPS, m.FetchedAt, string(errNotes)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}
