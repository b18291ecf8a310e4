package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"StockNewsTracker/internal/domain"
)

const reconnectDelay = 5 * time.Second

// Handler processes one decoded event. Returning an error makes the broker
// redeliver the message, so handlers must be idempotent.
type Handler func(ctx context.Context, ev domain.ItemEnrichedEvent) error

// Consumer reads item events from a durable queue bound to the publisher's
// routing key and dispatches them to a handler, at-least-once.
type Consumer struct {
	url    string
	queue  string
	logger *slog.Logger
}

// NewConsumer records the broker URL and the consumer group's queue name.
func NewConsumer(url, queue string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, queue: queue, logger: logger}
}

// Run consumes until ctx is cancelled, reconnecting after broker drops. The
// in-flight handler is allowed to finish before shutdown completes.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("consumer connection lost, reconnecting", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context, handler Handler) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(c.queue, RoutingKey, Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	tag := "consumer-" + uuid.NewString()
	deliveries, err := ch.Consume(c.queue, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("consuming item events", "queue", c.queue, "routing_key", RoutingKey)

	for {
		select {
		case <-ctx.Done():
			// Stop accepting new deliveries; the current handler already ran.
			_ = ch.Cancel(tag, false)
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, d, handler)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	ev, err := DecodeEvent(d.Body)
	if err != nil {
		c.logger.Warn("discarding malformed event", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, ev); err != nil {
		c.logger.Error("handler failed, requeueing delivery", "item_id", ev.ItemID, "error", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// DecodeEvent parses the wire envelope and rejects unknown event kinds.
func DecodeEvent(body []byte) (domain.ItemEnrichedEvent, error) {
	var ev domain.ItemEnrichedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	if ev.EventType != domain.EventTypeItemEnriched {
		return ev, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	return ev, nil
}
