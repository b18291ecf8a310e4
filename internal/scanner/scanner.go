package scanner

import (
	"context"
	"fmt"

	"StockNewsTracker/internal/domain"
)

// Request carries all parameters required to scan one configured source.
type Request struct {
	SiteName string
	URL      string
	Options  map[string]string
}

// Scanner captures a single source strategy (HTML crawler, RSS, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry maps strategy names to the source scanners that site
// configurations refer to.
type Registry struct {
	strategies map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Scanner{}}
}

// Register adds or replaces a source strategy under its name.
func (r *Registry) Register(strategy Scanner) {
	if r.strategies == nil {
		r.strategies = map[string]Scanner{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns the strategy a site configuration names.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
