// Package notify carries partner-activity events from the api service to
// the notifier over RabbitMQ. The notifier turns them into notification
// rows and realtime pushes.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultExchange = "dishdecide.events"
	defaultQueue    = "dishdecide.notifier"
)

// Event kinds published on the bus. They mirror the feed kinds so the
// notifier can forward them unchanged.
const (
	KindPartnerRequest  = "partner_request"
	KindRequestAccepted = "request_accepted"
	KindRequestRejected = "request_rejected"
	KindPartnerUnlinked = "partner_unlinked"
	KindRecipeShared    = "recipe_shared"
	KindReaction        = "reaction"
	KindPartnerMessage  = "partner_message"
)

// Event describes one piece of partner activity. ID doubles as the
// notification row key, which makes redelivery harmless.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	SubjectID string    `json:"subject_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends events to the topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	if exchange = strings.TrimSpace(exchange); exchange == "" {
		exchange = defaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one event, routed by its kind.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" || event.Kind == "" || event.UserID == "" {
		return errors.New("event requires id, kind, and user id")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, event.Kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.CreatedAt,
		Body:         body,
	})
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// Consumer receives events from a durable queue bound to the exchange.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer connects, declares the queue, and binds it to every kind.
func NewConsumer(url, exchange, queue string) (*Consumer, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	if exchange = strings.TrimSpace(exchange); exchange == "" {
		exchange = defaultExchange
	}
	if queue = strings.TrimSpace(queue); queue == "" {
		queue = defaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, "#", exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queue}, nil
}

// Run delivers events to handler until ctx is done. Handler failures nack
// with requeue; undecodable payloads are dropped.
func (c *Consumer) Run(ctx context.Context, logger *slog.Logger, handler func(context.Context, Event) error) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			var event Event
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				logger.Warn("drop undecodable event", "error", err)
				_ = delivery.Nack(false, false)
				continue
			}
			if err := handler(ctx, event); err != nil {
				logger.Error("handle event failed", "event_id", event.ID, "kind", event.Kind, "error", err)
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close shuts down the channel and connection.
func (c *Consumer) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return err
	}
	return c.conn.Close()
}
