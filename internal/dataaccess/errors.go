package dataaccess

import (
	"fmt"
	"time"
)

// InvalidSymbolError reports unusable ticker input
type InvalidSymbolError struct {
	Input  string
	Reason string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %q: %s", e.Input, e.Reason)
}

// InvalidRangeError reports a date range whose start is not before its end
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s must be before end %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// RateLimitedError is returned when every attempt was rate limited
type RateLimitedError struct {
	Symbol   string
	Attempts int
	Err      error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited fetching %s after %d attempts: %v", e.Symbol, e.Attempts, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// DataUnavailableError is returned for any other upstream failure
type DataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no data available for %s: %v", e.Symbol, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }
