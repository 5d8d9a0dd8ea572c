package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents one daily OHLCV record
type PriceBar struct {
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close,omitempty"`
	Volume   int64           `json:"volume"`
}

// PriceSeries is the daily history of one symbol over a date range.
// Bars are ordered by date ascending and never mutated after fetch.
type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Len returns the number of bars, treating a nil series as empty
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns the close prices in date order
func (s *PriceSeries) Closes() []decimal.Decimal {
	closes := make([]decimal.Decimal, 0, s.Len())
	if s == nil {
		return closes
	}
	for _, b := range s.Bars {
		closes = append(closes, b.Close)
	}
	return closes
}

// IsSorted reports whether bar dates are strictly ascending
func (s *PriceSeries) IsSorted() bool {
	if s == nil {
		return true
	}
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i-1].Date.Before(s.Bars[i].Date) {
			return false
		}
	}
	return true
}
