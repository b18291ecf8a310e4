package usecase

import (
	"context"
	"fmt"
	"strings"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/ports"
)

// Watchlist manages subscriber interest rules.
type Watchlist struct {
	repo ports.WatchlistRepository
}

// NewWatchlist wires the rule store.
func NewWatchlist(repo ports.WatchlistRepository) *Watchlist {
	return &Watchlist{repo: repo}
}

// Add registers a rule after normalizing its value. Re-adding an existing
// rule returns the stored row unchanged.
func (w *Watchlist) Add(ctx context.Context, userID string, kind domain.WatchlistKind, value string) (domain.WatchlistItem, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.WatchlistItem{}, fmt.Errorf("watchlist value must not be empty")
	}
	if kind != domain.WatchKeyword && kind != domain.WatchSymbol {
		return domain.WatchlistItem{}, fmt.Errorf("unknown watchlist kind %q", kind)
	}
	if kind == domain.WatchSymbol {
		value = strings.ToUpper(value)
	}

	return w.repo.Add(ctx, domain.WatchlistItem{
		UserID: userID,
		Kind:   kind,
		Value:  value,
	})
}

// List returns the subscriber's rules.
func (w *Watchlist) List(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	return w.repo.ListByUser(ctx, userID)
}

// Remove deletes a rule owned by the subscriber.
func (w *Watchlist) Remove(ctx context.Context, id int64, userID string) error {
	return w.repo.Delete(ctx, id, userID)
}
