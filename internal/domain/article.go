package domain

import "time"

// Article is the unit of ingestion: one news story collected from a source.
// Immutable once persisted except for the enrichment attachment.
type Article struct {
	ID          int64
	Title       string
	URL         string
	Summary     string
	Source      string
	ContentHash string
	PublishedAt string // raw date text as scraped; format is source-specific
	CreatedAt   time.Time
}

// Enrichment holds the AI-derived signals attached 1:1 to an article. It
// always exists once processing completes; a failed analysis leaves the
// explicitly neutral zero values in place so consumers never special-case a
// missing enrichment.
type Enrichment struct {
	ArticleID      int64
	Summary        string
	Category       string
	SentimentScore float64 // in [-1, 1]
	SentimentText  string
	ImpactScore    float64 // in [0, 1]
	ImpactText     string
	KeyEntities    []string
	Rationale      string
	Raw            string // full provider payload, kept for audit only
	CreatedAt      time.Time
}

// WatchlistKind distinguishes keyword rules from stock-symbol rules. Both are
// evaluated the same way; the kind is kept for the subscriber's benefit.
type WatchlistKind string

const (
	WatchKeyword WatchlistKind = "KEYWORD"
	WatchSymbol  WatchlistKind = "STOCK_SYMBOL"
)

// WatchlistItem is one subscriber interest rule. (UserID, Kind, Value) is
// unique; registering the same rule twice returns the existing row.
type WatchlistItem struct {
	ID        int64
	UserID    string
	Kind      WatchlistKind
	Value     string
	CreatedAt time.Time
}

// CompanyMetrics is one fundamentals snapshot pulled from the markets
// provider. Individual endpoint failures are collected in Errors rather than
// failing the whole snapshot.
type CompanyMetrics struct {
	Symbol       string
	CompanyName  string
	Sector       string
	Industry     string
	MarketCap    float64
	PERatio      float64
	PBRatio      float64
	DebtToEquity float64
	ROE          float64
	Revenue      float64
	NetIncome    float64
	EPS          float64
	FetchedAt    time.Time
	Errors       []string
}
