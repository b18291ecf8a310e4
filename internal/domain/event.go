package domain

import "time"

// EventTypeItemEnriched is the only event kind currently on the bus.
const EventTypeItemEnriched = "item_enriched"

// EnrichmentPayload is the projection of an Enrichment that event consumers
// read, decoupled from the raw provider response kept for audit.
type EnrichmentPayload struct {
	Category       string   `json:"category"`
	SentimentScore float64  `json:"sentiment_score"`
	SentimentText  string   `json:"sentiment_text,omitempty"`
	ImpactScore    float64  `json:"impact_score"`
	ImpactText     string   `json:"impact_text,omitempty"`
	KeyEntities    []string `json:"key_entities"`
	Rationale      string   `json:"rationale"`
}

// ItemEnrichedEvent is the immutable envelope published for every newly
// ingested article. Delivery is at-least-once; consumers must be idempotent.
type ItemEnrichedEvent struct {
	EventType   string             `json:"event_type"`
	ItemID      int64              `json:"item_id"`
	Title       string             `json:"title"`
	URL         string             `json:"url"`
	Summary     string             `json:"summary"`
	Source      string             `json:"source"`
	CreatedAt   time.Time          `json:"created_at"`
	Enrichment  *EnrichmentPayload `json:"enrichment"`
	PublishedAt time.Time          `json:"published_at"`
	Producer    string             `json:"producer"`
}

// NewItemEnrichedEvent builds the envelope for an article and its attached
// enrichment. The enrichment may be nil on the wire for foreign producers,
// but this producer always attaches one.
func NewItemEnrichedEvent(article Article, enrichment *Enrichment, producer string) ItemEnrichedEvent {
	ev := ItemEnrichedEvent{
		EventType:   EventTypeItemEnriched,
		ItemID:      article.ID,
		Title:       article.Title,
		URL:         article.URL,
		Summary:     article.Summary,
		Source:      article.Source,
		CreatedAt:   article.CreatedAt,
		PublishedAt: time.Now().UTC(),
		Producer:    producer,
	}
	if enrichment != nil {
		entities := enrichment.KeyEntities
		if entities == nil {
			entities = []string{}
		}
		ev.Enrichment = &EnrichmentPayload{
			Category:       enrichment.Category,
			SentimentScore: enrichment.SentimentScore,
			SentimentText:  enrichment.SentimentText,
			ImpactScore:    enrichment.ImpactScore,
			ImpactText:     enrichment.ImpactText,
			KeyEntities:    entities,
			Rationale:      enrichment.Rationale,
		}
	}
	return ev
}
