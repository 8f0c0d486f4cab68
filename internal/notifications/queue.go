package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "parking.events"

// QueueNotifier publishes every notice as a persistent JSON message so
// downstream consumers (SMS, analytics) can react to lifecycle events.
type QueueNotifier struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewQueueNotifier(url, queue string) (*QueueNotifier, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	q := &QueueNotifier{url: url, queue: queue}
	if _, err := q.connection(); err != nil {
		return nil, err
	}
	return q, nil
}

// connection redials after the broker dropped us.
func (q *QueueNotifier) connection() (*amqp.Connection, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn != nil && !q.conn.IsClosed() {
		return q.conn, nil
	}
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	q.conn = conn
	return conn, nil
}

func (q *QueueNotifier) Notify(ctx context.Context, n Notice) error {
	conn, err := q.connection()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(n.Event),
		MessageId:    fmt.Sprintf("%s:%d", n.Event, n.BookingID),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", q.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (q *QueueNotifier) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn == nil || q.conn.IsClosed() {
		return nil
	}
	return q.conn.Close()
}
