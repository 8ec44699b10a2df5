package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CatalogLogFile is the file, inside the consumer's log directory, that
// receives one line per consumed event.
const CatalogLogFile = "catalog.log"

// StartCatalogConsumer connects to RabbitMQ, declares the events queue and
// appends each message to <logDir>/catalog.log. It reconnects with
// exponential backoff until ctx is cancelled, then returns ctx.Err().
// Malformed messages are rejected without requeueing.
func StartCatalogConsumer(ctx context.Context, url, logDir string, logger *log.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warnf("catalog-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logDir, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("catalog-consumer: consume loop ended: %v; reconnecting", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warnf("catalog-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(logDir, d.Body); err != nil {
				logger.Errorf("catalog-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(logDir string, body []byte) error {
	var ev CatalogEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, CatalogLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders an event as a single human friendly log line.
func formatLine(ev CatalogEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | id=%s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID)
	switch ev.Type {
	case HallCreated:
		fmt.Fprintf(&b, " | hall=%q | capacity=%d", ev.Name, ev.Capacity)
	case MovieCreated, MovieDeactivated:
		fmt.Fprintf(&b, " | movie=%q", ev.Name)
	case ShowScheduled:
		fmt.Fprintf(&b, " | movie=%q | movie_id=%s | hall=%q | starts_at=%s | price=%s",
			ev.Name, ev.MovieID, ev.HallName, ev.StartsAt, ev.Price)
	}
	if len(ev.Warnings) > 0 {
		fmt.Fprintf(&b, " | warnings=[%s]", strings.Join(ev.Warnings, "; "))
	}
	b.WriteByte('\n')
	return b.String()
}
