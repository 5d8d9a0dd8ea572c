// Package dataaccess fetches price history and company data for resolved
// symbols, shielding callers from an unreliable upstream with retries and
// a TTL cache.
package dataaccess

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/trogers1052/finance-eye/internal/cache"
	"github.com/trogers1052/finance-eye/internal/models"
	"github.com/trogers1052/finance-eye/internal/provider"
	"github.com/trogers1052/finance-eye/internal/retry"
)

// DefaultInfoTTL keeps company records for a day
const DefaultInfoTTL = 24 * time.Hour

// EventPublisher receives fetch outcomes; publishing is best effort
type EventPublisher interface {
	PublishHistoryFetched(ctx context.Context, series *models.PriceSeries, attempts int) error
	PublishFetchFailed(ctx context.Context, symbol string, start, end time.Time, attempts int, cause error) error
}

// Service is the data access layer used by the HTTP handlers
type Service struct {
	provider provider.Provider
	series   cache.SeriesStore
	info     *cache.Memory[*models.CompanyInfo]
	infoTTL  time.Duration
	policy   retry.Policy
	sleep    retry.Sleeper
	clock    cache.Clock
	events   EventPublisher
	logger   *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithRetryPolicy overrides retry.DefaultPolicy
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithSleeper replaces the real backoff wait, used by tests
func WithSleeper(sleep retry.Sleeper) Option {
	return func(s *Service) { s.sleep = sleep }
}

// WithClock sets the clock used for fetch timestamps and the info cache
func WithClock(c cache.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithInfoTTL sets how long company records are kept
func WithInfoTTL(ttl time.Duration) Option {
	return func(s *Service) { s.infoTTL = ttl }
}

// WithEventPublisher publishes fetch events
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service around a provider and a series store
func NewService(p provider.Provider, store cache.SeriesStore, opts ...Option) *Service {
	s := &Service{
		provider: p,
		series:   store,
		policy:   retry.DefaultPolicy,
		sleep:    retry.Sleep,
		clock:    cache.SystemClock{},
		infoTTL:  DefaultInfoTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.info = cache.NewMemory[*models.CompanyInfo](s.infoTTL, s.clock)
	return s
}

// InfoCache exposes the company cache so a janitor can purge it
func (s *Service) InfoCache() *cache.Memory[*models.CompanyInfo] {
	return s.info
}

// ResolveSymbol qualifies raw input for the given market
func (s *Service) ResolveSymbol(raw string, market models.Market) (models.Symbol, error) {
	sym, err := ResolveSymbol(raw, market)
	if err != nil {
		return sym, err
	}
	if sym.Code != raw {
		s.logger.Debug("adjusted ticker", "input", raw, "symbol", sym.Code, "market", market)
	}
	return sym, nil
}

// GetCompanyInfo returns company data for the symbol. Upstream failures
// are logged and replaced by a record named after the symbol.
func (s *Service) GetCompanyInfo(ctx context.Context, symbol models.Symbol) *models.CompanyInfo {
	if info, _, ok := s.info.Get(symbol.Code); ok {
		return info
	}

	info, err := s.provider.FetchInfo(ctx, symbol.Code)
	if err == nil && info == nil {
		err = provider.ErrNoData
	}
	if err != nil {
		if provider.IsRateLimited(err) {
			s.logger.Warn("company info rate limited, using fallback", "symbol", symbol.Code, "error", err)
		} else {
			s.logger.Warn("company info unavailable, using fallback", "symbol", symbol.Code, "error", err)
		}
		return models.FallbackCompanyInfo(symbol.Code)
	}

	out := *info
	out.Symbol = symbol.Code
	if out.Name == "" {
		out.Name = symbol.Code
	}
	s.info.Set(symbol.Code, &out)
	return &out
}

// GetPriceHistory returns the daily series for symbol between start and
// end. Cached series are returned as stored; otherwise the provider is
// called under the retry policy and a complete result is cached.
func (s *Service) GetPriceHistory(ctx context.Context, symbol models.Symbol, start, end time.Time) (*models.PriceSeries, error) {
	if symbol.IsZero() {
		return nil, &InvalidSymbolError{Input: symbol.Ticker, Reason: "symbol is not resolved"}
	}
	key := cache.NewKey(symbol.Code, start, end)
	if !key.Start.Before(key.End) {
		return nil, &InvalidRangeError{Start: key.Start, End: key.End}
	}

	cached, ok, err := s.series.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed, fetching from provider", "key", key.String(), "error", err)
	} else if ok {
		s.logger.Debug("price history cache hit", "key", key.String())
		return cached, nil
	}

	var bars []models.PriceBar
	m := retry.Do(ctx, s.policy, s.sleep, provider.IsRateLimited, func(ctx context.Context) error {
		var err error
		bars, err = s.provider.FetchHistory(ctx, symbol.Code, key.Start, key.End)
		if err == nil && len(bars) == 0 {
			err = provider.ErrNoData
		}
		if err != nil {
			s.logger.Info("price history fetch failed", "symbol", symbol.Code, "error", err)
		}
		return err
	})

	if m.State() != retry.Succeeded {
		ferr := s.failure(symbol.Code, m)
		s.publishFailure(ctx, symbol.Code, key, m.Attempts(), ferr)
		return nil, ferr
	}

	series := &models.PriceSeries{
		Symbol:    symbol.Code,
		Start:     key.Start,
		End:       key.End,
		Bars:      normalizeBars(bars),
		FetchedAt: s.clock.Now(),
	}

	if err := s.series.Set(ctx, key, series); err != nil {
		s.logger.Warn("failed to cache price history", "key", key.String(), "error", err)
	}
	s.logger.Info("fetched price history",
		"symbol", symbol.Code, "bars", series.Len(), "attempts", m.Attempts())

	if s.events != nil {
		if err := s.events.PublishHistoryFetched(ctx, series, m.Attempts()); err != nil {
			s.logger.Warn("failed to publish fetch event", "symbol", symbol.Code, "error", err)
		}
	}
	return series, nil
}

// InvalidateSymbol drops every cached series and company record for code
func (s *Service) InvalidateSymbol(ctx context.Context, code string) (int, error) {
	s.info.Delete(code)
	n, err := s.series.DeleteSymbol(ctx, code)
	if err != nil {
		return 0, err
	}
	s.logger.Info("invalidated cached data", "symbol", code, "series", n)
	return n, nil
}

func (s *Service) failure(code string, m *retry.Machine) error {
	switch m.Kind() {
	case retry.Exhausted:
		s.logger.Error("price history rate limited, retries exhausted",
			"symbol", code, "attempts", m.Attempts(), "waits", m.Waits())
		return &RateLimitedError{Symbol: code, Attempts: m.Attempts(), Err: m.Err()}
	case retry.Canceled:
		return &DataUnavailableError{Symbol: code, Err: m.Err()}
	default:
		s.logger.Error("price history unavailable", "symbol", code, "error", m.Err())
		return &DataUnavailableError{Symbol: code, Err: m.Err()}
	}
}

func (s *Service) publishFailure(ctx context.Context, code string, key cache.Key, attempts int, cause error) {
	if s.events == nil {
		return
	}
	// a canceled request context would drop the event
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return
	}
	if err := s.events.PublishFetchFailed(ctx, code, key.Start, key.End, attempts, cause); err != nil {
		s.logger.Warn("failed to publish fetch failure", "symbol", code, "error", err)
	}
}

// normalizeBars truncates bar dates to the UTC day, sorts them and keeps
// the last bar seen for each day
func normalizeBars(in []models.PriceBar) []models.PriceBar {
	bars := make([]models.PriceBar, len(in))
	copy(bars, in)
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for _, b := range bars {
		b.Date = cache.Day(b.Date)
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
