package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/finance-eye/internal/models"
)

// Invalidator drops cached data for a qualified symbol
type Invalidator interface {
	InvalidateSymbol(ctx context.Context, symbol string) (int, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// InvalidationConsumer applies cache invalidations published by any instance
type InvalidationConsumer struct {
	reader      messageReader
	invalidator Invalidator
	logger      *slog.Logger
}

// NewInvalidationConsumer creates a consumer for the invalidation topic.
// Each instance should use its own groupID so every instance sees every event.
func NewInvalidationConsumer(brokers []string, topic, groupID string, invalidator Invalidator, logger *slog.Logger) *InvalidationConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
	if logger == nil {
		logger = slog.Default()
	}

	return &InvalidationConsumer{
		reader:      reader,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Start consumes messages until ctx is cancelled
func (c *InvalidationConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka invalidation consumer", "topic", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.reader.Close()
					return nil
				}
				c.logger.Error("error reading message", "error", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error("error processing message", "error", err, "offset", msg.Offset)
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *InvalidationConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.InvalidationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal invalidation event: %w", err)
	}

	if event.EventType != models.EventCacheInvalidate {
		c.logger.Debug("ignoring event type", "event_type", event.EventType)
		return nil
	}

	symbol := strings.ToUpper(strings.TrimSpace(event.Symbol))
	if symbol == "" {
		return fmt.Errorf("invalidation event without symbol")
	}

	if _, err := c.invalidator.InvalidateSymbol(ctx, symbol); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", symbol, err)
	}
	return nil
}

// Close closes the Kafka consumer
func (c *InvalidationConsumer) Close() error {
	return c.reader.Close()
}
