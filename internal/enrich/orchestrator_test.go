package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedProvider answers the summary and analysis prompts independently so
// tests can degrade one step without the other.
type scriptedProvider struct {
	summary     string
	summaryErr  error
	analysis    string
	analysisErr error
	calls       []string
}

func (p *scriptedProvider) Generate(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "single JSON object") {
		p.calls = append(p.calls, "analysis")
		return p.analysis, p.analysisErr
	}
	p.calls = append(p.calls, "summary")
	return p.summary, p.summaryErr
}

const longBody = "Ngân hàng Nhà nước vừa công bố quyết định điều chỉnh lãi suất điều hành, " +
	"một động thái được giới phân tích đánh giá là sẽ tác động trực tiếp tới dòng tiền trên thị trường chứng khoán."

func TestEnrichNormalizesVietnameseLabels(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		summary: "tóm tắt",
		analysis: `{"category": "Chính sách tiền tệ", "sentiment": "Tích cực",
			"impact_level": "Cao", "key_entities": ["NHNN", "VND"],
			"analysis_summary": "Hạ lãi suất hỗ trợ thanh khoản."}`,
	}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "Hạ lãi suất", longBody)

	if got.Category != "Chính sách tiền tệ" {
		t.Fatalf("category = %q", got.Category)
	}
	if got.SentimentScore != 1.0 || got.SentimentText != "Tích cực" {
		t.Fatalf("sentiment = %v / %q", got.SentimentScore, got.SentimentText)
	}
	if got.ImpactScore != 1.0 || got.ImpactText != "Cao" {
		t.Fatalf("impact = %v / %q", got.ImpactScore, got.ImpactText)
	}
	if len(got.KeyEntities) != 2 {
		t.Fatalf("entities = %v", got.KeyEntities)
	}
	if got.Rationale != "Hạ lãi suất hỗ trợ thanh khoản." {
		t.Fatalf("rationale = %q", got.Rationale)
	}
	if got.Summary != "tóm tắt" {
		t.Fatalf("summary = %q", got.Summary)
	}
}

func TestEnrichNegativeAndMediumLabels(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		analysis: `{"category": "Thị trường chung", "sentiment": "Tiêu cực",
			"impact_level": "Trung bình", "key_entities": [], "analysis_summary": "x"}`,
	}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "t", "ngắn")
	if got.SentimentScore != -1.0 {
		t.Fatalf("sentiment score = %v", got.SentimentScore)
	}
	if got.ImpactScore != 0.5 {
		t.Fatalf("impact score = %v", got.ImpactScore)
	}
}

func TestEnrichUnknownLabelsResolveToZero(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		analysis: `{"category": "Giá vàng", "sentiment": "Bullish",
			"impact_level": "Severe", "key_entities": [], "analysis_summary": "x"}`,
	}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "t", "ngắn")
	if got.SentimentScore != 0 || got.ImpactScore != 0 {
		t.Fatalf("unknown labels must map to 0, got %v / %v", got.SentimentScore, got.ImpactScore)
	}
	if got.SentimentText != "Bullish" || got.ImpactText != "Severe" {
		t.Fatalf("raw labels must be preserved, got %q / %q", got.SentimentText, got.ImpactText)
	}
}

func TestEnrichProviderFailureYieldsNeutralDefaults(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		summaryErr:  errors.New("quota"),
		analysisErr: errors.New("quota"),
	}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "Tiêu đề", longBody)
	if got.Category != "Không rõ" {
		t.Fatalf("category = %q", got.Category)
	}
	if got.SentimentScore != 0 || got.ImpactScore != 0 {
		t.Fatalf("expected neutral scores, got %v / %v", got.SentimentScore, got.ImpactScore)
	}
	if got.KeyEntities == nil || len(got.KeyEntities) != 0 {
		t.Fatalf("entities must be empty non-nil, got %v", got.KeyEntities)
	}
	if got.Raw != "{}" {
		t.Fatalf("raw = %q", got.Raw)
	}
	if got.Summary != longBody {
		t.Fatal("summary must fall back to the original body")
	}
}

func TestEnrichUnparseableAnalysisDegrades(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{analysis: "xin lỗi, không có JSON ở đây"}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "t", "ngắn")
	if got.Category != "Không rõ" || got.Raw != "{}" {
		t.Fatalf("expected neutral defaults, got %+v", got)
	}
}

func TestEnrichShortBodySkipsSummarization(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		analysis: `{"category": "Giá vàng", "sentiment": "Trung tính",
			"impact_level": "Thấp", "key_entities": [], "analysis_summary": "x"}`,
	}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "t", "ngắn")
	if got.Summary != "ngắn" {
		t.Fatalf("short body must pass through, got %q", got.Summary)
	}
	for _, call := range provider.calls {
		if call == "summary" {
			t.Fatal("summarization must be skipped for short bodies")
		}
	}
}

func TestEnrichShortBodyLengthIsCountedInRunes(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		analysis: `{"category": "Giá vàng", "sentiment": "Trung tính",
			"impact_level": "Thấp", "key_entities": [], "analysis_summary": "x"}`,
	}
	o := NewOrchestrator(provider, nil)

	// 80 runes but 240 UTF-8 bytes; still below the summarization threshold.
	body := strings.Repeat("ế", 80)
	got := o.Enrich(context.Background(), "t", body)
	if got.Summary != body {
		t.Fatalf("80-rune body must pass through, got %q", got.Summary)
	}
	for _, call := range provider.calls {
		if call == "summary" {
			t.Fatal("summarization threshold must count runes, not bytes")
		}
	}
}

func TestEnrichTruncatesEntities(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		analysis: `{"category": "Thị trường chung", "sentiment": "Trung tính",
			"impact_level": "Thấp",
			"key_entities": ["a", "b", "c", "d", "e", "f", "g"],
			"analysis_summary": "x"}`,
	}
	o := NewOrchestrator(provider, nil)

	got := o.Enrich(context.Background(), "t", "ngắn")
	if len(got.KeyEntities) != 5 {
		t.Fatalf("expected 5 entities, got %d", len(got.KeyEntities))
	}
}
