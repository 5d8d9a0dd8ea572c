package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/finance-eye/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing fetch and invalidation events to Kafka
type Producer struct {
	writer            messageWriter
	topic             string
	invalidationTopic string
	now               func() time.Time
}

// NewProducer creates a new Kafka producer. Fetch events go to topic,
// invalidations to invalidationTopic.
func NewProducer(brokers []string, topic, invalidationTopic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer:            writer,
		topic:             topic,
		invalidationTopic: invalidationTopic,
		now:               time.Now,
	}
}

// PublishHistoryFetched publishes a successful fetch
func (p *Producer) PublishHistoryFetched(ctx context.Context, series *models.PriceSeries, attempts int) error {
	event := models.FetchEvent{
		ID:        uuid.NewString(),
		EventType: models.EventHistoryFetched,
		Symbol:    series.Symbol,
		Start:     series.Start,
		End:       series.End,
		Bars:      series.Len(),
		Attempts:  attempts,
		Timestamp: p.now(),
	}
	return p.publish(ctx, p.topic, series.Symbol, event)
}

// PublishFetchFailed publishes a fetch that ended in error
func (p *Producer) PublishFetchFailed(ctx context.Context, symbol string, start, end time.Time, attempts int, cause error) error {
	event := models.FetchEvent{
		ID:        uuid.NewString(),
		EventType: models.EventFetchFailed,
		Symbol:    symbol,
		Start:     start,
		End:       end,
		Attempts:  attempts,
		Timestamp: p.now(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	return p.publish(ctx, p.topic, symbol, event)
}

// PublishInvalidation asks every instance to drop cached data for symbol
func (p *Producer) PublishInvalidation(ctx context.Context, symbol string) error {
	event := models.InvalidationEvent{
		EventType: models.EventCacheInvalidate,
		Symbol:    symbol,
		Timestamp: p.now(),
	}
	return p.publish(ctx, p.invalidationTopic, symbol, event)
}

func (p *Producer) publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
