package notify

import (
	"sort"
	"strings"

	"StockNewsTracker/internal/domain"
)

// Decision ranks how an event should be surfaced to the subscriber.
type Decision int

const (
	NoAction Decision = iota
	KeywordMatch
	HighImpact
)

func (d Decision) String() string {
	switch d {
	case KeywordMatch:
		return "keyword_match"
	case HighImpact:
		return "high_impact"
	default:
		return "no_action"
	}
}

// highImpactThreshold gates the generic broadcast when no rule matched.
const highImpactThreshold = 0.5

// Evaluation carries the decision plus the rule values that triggered it.
type Evaluation struct {
	Decision Decision
	Matched  []string
}

// Decide evaluates subscriber rules against an event. A keyword or symbol
// match always wins over the impact fallback so the same item never produces
// two competing notifications on one channel. Rule values are matched
// case-insensitively as substrings of the title and, separately, the summary.
func Decide(ev domain.ItemEnrichedEvent, rules []domain.WatchlistItem) Evaluation {
	title := strings.ToLower(ev.Title)
	summary := strings.ToLower(ev.Summary)

	matched := map[string]struct{}{}
	for _, rule := range rules {
		needle := strings.ToLower(rule.Value)
		if needle == "" {
			continue
		}
		if strings.Contains(title, needle) || strings.Contains(summary, needle) {
			matched[rule.Value] = struct{}{}
		}
	}

	if len(matched) > 0 {
		values := make([]string, 0, len(matched))
		for v := range matched {
			values = append(values, v)
		}
		sort.Strings(values)
		return Evaluation{Decision: KeywordMatch, Matched: values}
	}

	if ev.Enrichment != nil && ev.Enrichment.ImpactScore >= highImpactThreshold {
		return Evaluation{Decision: HighImpact}
	}

	return Evaluation{Decision: NoAction}
}
