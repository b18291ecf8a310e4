package usecase

import (
	"context"
	"testing"

	"StockNewsTracker/internal/domain"
)

func TestWatchlistAddNormalizesSymbols(t *testing.T) {
	t.Parallel()

	w := NewWatchlist(&fakeWatchlist{})
	item, err := w.Add(context.Background(), "u1", domain.WatchSymbol, "  hpg ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Value != "HPG" {
		t.Fatalf("symbol must be trimmed and uppercased, got %q", item.Value)
	}
}

func TestWatchlistAddKeepsKeywordCasing(t *testing.T) {
	t.Parallel()

	w := NewWatchlist(&fakeWatchlist{})
	item, err := w.Add(context.Background(), "u1", domain.WatchKeyword, "lãi suất")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Value != "lãi suất" {
		t.Fatalf("keyword must keep its casing, got %q", item.Value)
	}
}

func TestWatchlistAddRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	w := NewWatchlist(&fakeWatchlist{})
	if _, err := w.Add(context.Background(), "u1", domain.WatchKeyword, "   "); err == nil {
		t.Fatal("blank value must be rejected")
	}
	if _, err := w.Add(context.Background(), "u1", domain.WatchlistKind("OTHER"), "x"); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
}
