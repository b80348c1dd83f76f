// Package notify announces state transitions to participants. Delivery is
// fire-and-forget: a notification must never fail or delay the transition it
// announces, so every error here is logged and swallowed.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notification is one push message for one recipient.
type Notification struct {
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Tag         string            `json:"tag"`
	URL         string            `json:"url,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// Notifier delivers notifications best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// exchange is the durable fanout exchange the push-delivery subscriber binds to.
const exchange = "notifications_fanout"

// AMQPNotifier publishes notifications to a RabbitMQ fanout exchange.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares the fanout exchange.
func Dial(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

// Notify publishes one persistent JSON message. Failures are logged, never
// returned.
func (n *AMQPNotifier) Notify(ctx context.Context, msg Notification) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("notification encode failed", "tag", msg.Tag, "error", err)
		return
	}
	err = n.ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		slog.Warn("notification publish failed",
			"recipient_id", msg.RecipientID,
			"tag", msg.Tag,
			"error", err,
		)
	}
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() {
	if n == nil {
		return
	}
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}

// Noop is a Notifier that drops everything. Used in tests and when no broker
// is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) {}
