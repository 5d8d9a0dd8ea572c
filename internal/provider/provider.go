// Package provider adapts upstream market-data sources to the shapes the
// dashboard needs.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/trogers1052/finance-eye/internal/models"
)

var (
	// ErrRateLimited marks an upstream refusal that may succeed if retried later
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrNoData marks a successful call that returned nothing for the symbol
	ErrNoData = errors.New("no data returned")
)

// Provider fetches history and descriptive data for a qualified symbol
type Provider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error)
	FetchInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error)
	Name() string
}

// IsRateLimited reports whether err is an upstream rate-limit failure
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// status429 matches a standalone 429, not digits inside a timestamp in a URL
var status429 = regexp.MustCompile(`\b429\b`)

// looksRateLimited inspects raw upstream errors, which only carry the
// HTTP status in their message.
func looksRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return status429.MatchString(msg) ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

// StatusError is an upstream HTTP failure kept before the client library
// discards the status code
type StatusError struct {
	StatusCode int
	RetryAfter string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.RetryAfter != "" {
		msg += " (retry after " + e.RetryAfter + ")"
	}
	return msg
}

// Unwrap lets errors.Is match ErrRateLimited on 429s
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}
