package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/trogers1052/finance-eye/internal/models"
)

const defaultYahooTimeout = 30 * time.Second

// Yahoo implements Provider on the unofficial Yahoo Finance endpoints.
// The upstream is scraped, unauthenticated and rate limits aggressively.
type Yahoo struct {
	history func(*chart.Params) chartIter
	equity  func(*equity.Params) equityIter
}

// chartIter is the subset of *chart.Iter used here
type chartIter interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// equityIter is the subset of *equity.Iter used here
type equityIter interface {
	Next() bool
	Equity() *finance.Equity
	Err() error
}

type yahooOptions struct {
	baseURL string
	client  *http.Client
}

// YahooOption configures NewYahoo
type YahooOption func(*yahooOptions)

// WithBaseURL points the provider at another host, e.g. a test server
func WithBaseURL(url string) YahooOption {
	return func(o *yahooOptions) { o.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets the client used for upstream calls. Its transport is
// wrapped so 429 responses surface as ErrRateLimited.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(o *yahooOptions) { o.client = c }
}

// NewYahoo creates a Yahoo provider with its own finance-go backend, so
// the package-level finance-go defaults are left alone.
func NewYahoo(opts ...YahooOption) *Yahoo {
	o := yahooOptions{
		baseURL: finance.YFinURL,
		client:  &http.Client{Timeout: defaultYahooTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	client := *o.client
	client.Transport = &rateLimitTransport{base: client.Transport}
	backend := &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        o.baseURL,
		HTTPClient: &client,
	}

	charts := chart.Client{B: backend}
	equities := equity.Client{B: backend}
	return &Yahoo{
		history: func(p *chart.Params) chartIter { return charts.Get(p) },
		equity:  func(p *equity.Params) equityIter { return equities.ListP(p) },
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

// FetchHistory returns daily bars between start and end, oldest first
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	params.Context = &ctx

	iter := y.history(params)
	var bars []models.PriceBar
	for iter.Next() {
		b := iter.Bar()
		if b == nil {
			continue
		}
		// holidays come back as all-zero rows
		if b.Open.IsZero() && b.High.IsZero() && b.Low.IsZero() && b.Close.IsZero() {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:     time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.AdjClose,
			Volume:   int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, classify(symbol, "history", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// FetchInfo returns the company name and listing details. The long name
// is preferred, then the short name.
func (y *Yahoo) FetchInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	params := &equity.Params{Symbols: []string{symbol}}
	params.Context = &ctx

	iter := y.equity(params)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return nil, classify(symbol, "quote", err)
		}
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, ErrNoData)
	}
	e := iter.Equity()
	if e == nil || e.Symbol == "" {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, ErrNoData)
	}

	name := strings.TrimSpace(e.LongName)
	if name == "" {
		name = strings.TrimSpace(e.ShortName)
	}
	return &models.CompanyInfo{
		Symbol:   e.Symbol,
		Name:     name,
		Exchange: e.FullExchangeName,
		Currency: e.CurrencyID,
	}, nil
}

// classify marks rate-limit failures. The chart client keeps the transport
// error in the chain; the quote client flattens it to text.
func classify(symbol, op string, err error) error {
	if errors.Is(err, ErrRateLimited) {
		return fmt.Errorf("yahoo %s %s: %w", op, symbol, err)
	}
	if looksRateLimited(err) {
		return fmt.Errorf("yahoo %s %s: %w: %v", op, symbol, ErrRateLimited, err)
	}
	return fmt.Errorf("yahoo %s %s: %w", op, symbol, err)
}

// rateLimitTransport turns 429 responses into errors before finance-go
// replaces every 4xx/5xx with a generic remote error.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	res, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusTooManyRequests {
		return res, nil
	}

	io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	res.Body.Close()
	return nil, &StatusError{StatusCode: res.StatusCode, RetryAfter: res.Header.Get("Retry-After")}
}
