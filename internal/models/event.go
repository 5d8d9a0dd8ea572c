package models

import "time"

const (
	EventHistoryFetched  = "PRICE_HISTORY_FETCHED"
	EventFetchFailed     = "PRICE_HISTORY_FAILED"
	EventCacheInvalidate = "CACHE_INVALIDATE"
)

// FetchEvent represents a Kafka event describing an upstream fetch
type FetchEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Bars      int       `json:"bars,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InvalidationEvent asks every instance to drop cached data for a symbol
type InvalidationEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}
