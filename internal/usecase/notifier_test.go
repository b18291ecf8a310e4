package usecase

import (
	"context"
	"errors"
	"testing"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/metrics"
	"StockNewsTracker/internal/notify"
)

type fakeWatchlist struct {
	items []domain.WatchlistItem
	err   error
}

func (f *fakeWatchlist) Add(_ context.Context, item domain.WatchlistItem) (domain.WatchlistItem, error) {
	return item, nil
}

func (f *fakeWatchlist) ListByUser(context.Context, string) ([]domain.WatchlistItem, error) {
	return f.items, f.err
}

func (f *fakeWatchlist) Delete(context.Context, int64, string) error { return nil }

type fakeDispatcher struct {
	ok      bool
	called  int
	lastEv  domain.ItemEnrichedEvent
	lastVal notify.Evaluation
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ string, ev domain.ItemEnrichedEvent, eval notify.Evaluation) bool {
	f.called++
	f.lastEv = ev
	f.lastVal = eval
	return f.ok
}

func newTestNotifier(watchlist *fakeWatchlist, dispatcher *fakeDispatcher) *Notifier {
	return NewNotifier(watchlist, dispatcher, "u1", "chat1", metrics.Nop{}, nil)
}

func TestHandleEventDispatchesKeywordMatch(t *testing.T) {
	t.Parallel()

	watchlist := &fakeWatchlist{items: []domain.WatchlistItem{
		{UserID: "u1", Kind: domain.WatchKeyword, Value: "HPG"},
	}}
	dispatcher := &fakeDispatcher{ok: true}
	n := newTestNotifier(watchlist, dispatcher)

	ev := domain.ItemEnrichedEvent{
		EventType: domain.EventTypeItemEnriched,
		ItemID:    5,
		Title:     "HPG tăng trần",
	}
	if err := n.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatcher.called != 1 {
		t.Fatalf("dispatch calls = %d", dispatcher.called)
	}
	if dispatcher.lastVal.Decision != notify.KeywordMatch {
		t.Fatalf("decision = %s", dispatcher.lastVal.Decision)
	}
}

func TestHandleEventNoActionSkipsDispatch(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{ok: true}
	n := newTestNotifier(&fakeWatchlist{}, dispatcher)

	ev := domain.ItemEnrichedEvent{
		EventType:  domain.EventTypeItemEnriched,
		Title:      "tin thường",
		Enrichment: &domain.EnrichmentPayload{ImpactScore: 0.1},
	}
	if err := n.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatcher.called != 0 {
		t.Fatalf("dispatch must be skipped, calls = %d", dispatcher.called)
	}
}

func TestHandleEventWatchlistFailurePropagates(t *testing.T) {
	t.Parallel()

	n := newTestNotifier(&fakeWatchlist{err: errors.New("db down")}, &fakeDispatcher{})
	err := n.HandleEvent(context.Background(), domain.ItemEnrichedEvent{Title: "tin"})
	if err == nil {
		t.Fatal("watchlist failure must propagate so the delivery is redelivered")
	}
}

func TestHandleEventDispatchFailureIsFinal(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{ok: false}
	n := newTestNotifier(&fakeWatchlist{}, dispatcher)

	ev := domain.ItemEnrichedEvent{
		Title:      "tin lớn",
		Enrichment: &domain.EnrichmentPayload{ImpactScore: 0.9},
	}
	if err := n.HandleEvent(context.Background(), ev); err != nil {
		t.Fatal("dispatch failure must not trigger redelivery")
	}
	if dispatcher.called != 1 {
		t.Fatalf("dispatch calls = %d", dispatcher.called)
	}
}
