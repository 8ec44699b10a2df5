package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventsQueue is the durable queue catalog events are routed to.
const EventsQueue = "catalog.events"

// Publisher sends catalog events to RabbitMQ through the default exchange.
// The connection is opened lazily and reopened when the broker drops it.
// Errors are logged and returned so callers can choose to ignore them.
type Publisher struct {
	url    string
	logger *log.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher does not dial; the first Publish does.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.conn = conn
	return conn, nil
}

// Publish marks messages persistent and declares the queue on every call;
// declaring is idempotent.
func (p *Publisher) Publish(ctx context.Context, ev CatalogEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	conn, err := p.connection()
	if err != nil {
		p.logger.Warnf("rabbitmq: %v", err)
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warnf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		p.logger.Warnf("rabbitmq: queue declare failed: %v", err)
		return err
	}
	err = ch.PublishWithContext(ctx, "", EventsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.logger.Warnf("rabbitmq: publish %s failed: %v", ev.Type, err)
		return err
	}
	return nil
}

// Close releases the broker connection, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
