package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"StockNewsTracker/internal/domain"
)

const (
	// minSummarizeLen skips summarization for bodies too short to compress.
	// Counted in runes, not bytes: the content is Vietnamese.
	minSummarizeLen = 100
	maxEntities     = 5

	defaultCategory = "Không rõ"
)

// sentimentScores maps provider sentiment labels to signed scores. Unknown
// labels resolve to neutral 0.
var sentimentScores = map[string]float64{
	"Tích cực":   1.0,
	"Trung tính": 0.0,
	"Tiêu cực":   -1.0,
}

// impactScores maps provider impact labels to [0, 1]. Unknown labels resolve
// to 0.
var impactScores = map[string]float64{
	"Cao":        1.0,
	"Trung bình": 0.5,
	"Thấp":       0.1,
}

// Provider generates free-form text for a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// analysis mirrors the JSON object the provider is prompted for.
type analysis struct {
	Category    string   `json:"category"`
	Sentiment   string   `json:"sentiment"`
	ImpactLevel string   `json:"impact_level"`
	KeyEntities []string `json:"key_entities"`
	Rationale   string   `json:"analysis_summary"`
}

// Orchestrator turns raw article text into structured signals through three
// steps: summarizing, analyzing and normalizing. Enrich never fails; every
// provider or parse error degrades that step to its neutral default so the
// pipeline cannot stall on provider flakiness.
type Orchestrator struct {
	provider Provider
	logger   *slog.Logger
}

// NewOrchestrator wires the enrichment provider.
func NewOrchestrator(provider Provider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{provider: provider, logger: logger}
}

// Enrich produces the signal set for an article. The result is always
// structurally valid: sentiment in [-1,1], impact in [0,1], entities non-nil.
func (o *Orchestrator) Enrich(ctx context.Context, title, body string) domain.Enrichment {
	result := domain.Enrichment{
		Category:    defaultCategory,
		KeyEntities: []string{},
		Raw:         "{}",
	}

	result.Summary = o.summarize(ctx, title, body)

	parsed, raw, ok := o.analyze(ctx, title, body)
	if !ok {
		return result
	}

	if parsed.Category != "" {
		result.Category = parsed.Category
	}
	result.SentimentText = parsed.Sentiment
	result.SentimentScore = sentimentScores[parsed.Sentiment]
	result.ImpactText = parsed.ImpactLevel
	result.ImpactScore = impactScores[parsed.ImpactLevel]
	result.Rationale = parsed.Rationale
	result.Raw = raw

	entities := parsed.KeyEntities
	if len(entities) > maxEntities {
		entities = entities[:maxEntities]
	}
	if entities != nil {
		result.KeyEntities = entities
	}

	return result
}

// summarize passes short bodies through unchanged; on provider failure the
// original body is kept as the summary.
func (o *Orchestrator) summarize(ctx context.Context, title, body string) string {
	if utf8.RuneCountInString(strings.TrimSpace(body)) < minSummarizeLen {
		return body
	}
	out, err := o.provider.Generate(ctx, summaryPrompt(title, body))
	if err != nil {
		o.logger.Warn("summarization degraded", "title", title, "error", err)
		return body
	}
	return strings.TrimSpace(out)
}

func (o *Orchestrator) analyze(ctx context.Context, title, body string) (analysis, string, bool) {
	out, err := o.provider.Generate(ctx, analysisPrompt(title, body))
	if err != nil {
		o.logger.Warn("analysis degraded", "title", title, "error", err)
		return analysis{}, "", false
	}

	raw, err := ExtractJSON(out)
	if err != nil {
		o.logger.Warn("analysis response not parseable", "title", title, "error", err)
		return analysis{}, "", false
	}

	var parsed analysis
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		o.logger.Warn("analysis object malformed", "title", title, "error", err)
		return analysis{}, "", false
	}
	return parsed, raw, true
}
