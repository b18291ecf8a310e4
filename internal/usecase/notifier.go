package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/metrics"
	"StockNewsTracker/internal/notify"
	"StockNewsTracker/internal/ports"
)

// Notifier evaluates consumed events against the subscriber's watchlist and
// dispatches at most one notification per event.
type Notifier struct {
	watchlist  ports.WatchlistRepository
	dispatcher ports.Dispatcher
	userID     string
	chatID     string
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// NewNotifier wires the watchlist store and the outbound channel.
func NewNotifier(
	watchlist ports.WatchlistRepository,
	dispatcher ports.Dispatcher,
	userID, chatID string,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Notifier {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		watchlist:  watchlist,
		dispatcher: dispatcher,
		userID:     userID,
		chatID:     chatID,
		recorder:   recorder,
		logger:     logger.With("component", "notifier"),
	}
}

// HandleEvent decides and dispatches for one event. A watchlist read failure
// is returned so the delivery gets redelivered; a dispatch failure is final
// and only logged, since redelivering would risk a duplicate notification.
func (n *Notifier) HandleEvent(ctx context.Context, ev domain.ItemEnrichedEvent) error {
	n.recorder.RecordConsumed()

	rules, err := n.watchlist.ListByUser(ctx, n.userID)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	eval := notify.Decide(ev, rules)
	if eval.Decision == notify.NoAction {
		n.logger.Debug("event below notification thresholds", "item_id", ev.ItemID)
		return nil
	}

	if !n.dispatcher.Dispatch(ctx, n.chatID, ev, eval) {
		n.recorder.RecordNotificationFailure()
		n.logger.Error("notification not delivered",
			"item_id", ev.ItemID, "decision", eval.Decision.String())
		return nil
	}

	n.recorder.RecordNotificationSent(eval.Decision.String())
	return nil
}
