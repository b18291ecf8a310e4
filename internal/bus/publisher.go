package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"StockNewsTracker/internal/domain"
)

const (
	// Exchange is the durable topic exchange all item events flow through.
	Exchange = "item_events"
	// RoutingKey routes the item-enriched event kind.
	RoutingKey = "item.created"
)

// Publisher emits item events to the durable topic exchange. The connection
// is established lazily on the first publish and re-established transparently
// after a broker drop; callers never manage the connection themselves.
type Publisher struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher records the broker URL; no connection is made yet.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, logger: logger}
}

// Publish marshals the event and sends it as a persistent message. Whether a
// failure is fatal is the caller's call; ingestion treats publishing as best
// effort.
func (p *Publisher) Publish(ctx context.Context, ev domain.ItemEnrichedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, Exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.PublishedAt,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.Info("published item event", "item_id", ev.ItemID, "routing_key", RoutingKey)
	return nil
}

// Close tears down the broker connection if one was established.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p.conn, p.ch = conn, ch
	p.logger.Info("connected to broker", "exchange", Exchange)
	return ch, nil
}

func (p *Publisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
