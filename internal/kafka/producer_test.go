package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/finance-eye/internal/models"
)

type mockWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestProducer(w *mockWriter) *Producer {
	return &Producer{
		writer:            w,
		topic:             "financeeye-events",
		invalidationTopic: "financeeye-invalidations",
		now:               func() time.Time { return fixedNow },
	}
}

func TestProducer_PublishHistoryFetched(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	series := &models.PriceSeries{
		Symbol: "PETR4.SA",
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Bars:   make([]models.PriceBar, 61),
	}
	require.NoError(t, p.PublishHistoryFetched(context.Background(), series, 2))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "financeeye-events", msg.Topic)
	assert.Equal(t, "PETR4.SA", string(msg.Key))

	var event models.FetchEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, models.EventHistoryFetched, event.EventType)
	assert.Equal(t, 61, event.Bars)
	assert.Equal(t, 2, event.Attempts)
	assert.True(t, event.Timestamp.Equal(fixedNow))
	_, err := uuid.Parse(event.ID)
	assert.NoError(t, err)
}

func TestProducer_PublishFetchFailed(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	err := p.PublishFetchFailed(context.Background(), "AAPL", fixedNow.AddDate(0, -1, 0), fixedNow, 4, errors.New("rate limited"))
	require.NoError(t, err)

	var event models.FetchEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, models.EventFetchFailed, event.EventType)
	assert.Equal(t, "rate limited", event.Error)
	assert.Equal(t, 4, event.Attempts)
}

func TestProducer_PublishInvalidation(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishInvalidation(context.Background(), "VALE3.SA"))
	assert.Equal(t, "financeeye-invalidations", w.messages[0].Topic)

	var event models.InvalidationEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, models.EventCacheInvalidate, event.EventType)
	assert.Equal(t, "VALE3.SA", event.Symbol)
}

func TestProducer_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	err := p.PublishInvalidation(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
