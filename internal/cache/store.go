// Package cache holds fetched price series and company records for a
// bounded time so repeated dashboard requests do not hit the upstream.
package cache

import (
	"context"
	"time"

	"github.com/trogers1052/finance-eye/internal/models"
)

const dateLayout = "2006-01-02"

// Key identifies a cached series: qualified symbol plus date range
type Key struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// NewKey builds a key with both dates truncated to the calendar day
func NewKey(symbol string, start, end time.Time) Key {
	return Key{Symbol: symbol, Start: Day(start), End: Day(end)}
}

func (k Key) String() string {
	return SymbolPrefix(k.Symbol) + k.Start.Format(dateLayout) + "|" + k.End.Format(dateLayout)
}

// SymbolPrefix is the key prefix shared by every range of one symbol
func SymbolPrefix(symbol string) string {
	return symbol + "|"
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeriesStore caches complete price series
type SeriesStore interface {
	Get(ctx context.Context, key Key) (*models.PriceSeries, bool, error)
	Set(ctx context.Context, key Key, series *models.PriceSeries) error
	DeleteSymbol(ctx context.Context, symbol string) (int, error)
}

// MemorySeriesStore is the process-wide SeriesStore
type MemorySeriesStore struct {
	mem *Memory[*models.PriceSeries]
}

// NewMemorySeriesStore creates an in-memory store with the given TTL
func NewMemorySeriesStore(ttl time.Duration, clock Clock) *MemorySeriesStore {
	return &MemorySeriesStore{mem: NewMemory[*models.PriceSeries](ttl, clock)}
}

func (s *MemorySeriesStore) Get(_ context.Context, key Key) (*models.PriceSeries, bool, error) {
	series, _, ok := s.mem.Get(key.String())
	return series, ok, nil
}

func (s *MemorySeriesStore) Set(_ context.Context, key Key, series *models.PriceSeries) error {
	s.mem.Set(key.String(), series)
	return nil
}

func (s *MemorySeriesStore) DeleteSymbol(_ context.Context, symbol string) (int, error) {
	return s.mem.DeletePrefix(SymbolPrefix(symbol)), nil
}

// Purge evicts expired series
func (s *MemorySeriesStore) Purge() int {
	return s.mem.Purge()
}

// Len returns the number of stored series
func (s *MemorySeriesStore) Len() int {
	return s.mem.Len()
}
