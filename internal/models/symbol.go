package models

import (
	"fmt"
	"strings"
)

// Market identifies the exchange group a ticker trades on
type Market string

const (
	MarketBrazil Market = "BR"
	MarketUS     Market = "US"
)

// ParseMarket parses user input such as "br", "B3" or "US"
func ParseMarket(s string) (Market, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BR", "B3", "BRAZIL", "BRASIL":
		return MarketBrazil, nil
	case "US", "USA", "NYSE", "NASDAQ":
		return MarketUS, nil
	default:
		return "", fmt.Errorf("unknown market: %q", s)
	}
}

// DisplayName returns the label used in the dashboard form
func (m Market) DisplayName() string {
	switch m {
	case MarketBrazil:
		return "Brazil (B3)"
	case MarketUS:
		return "US (NYSE/NASDAQ)"
	default:
		return string(m)
	}
}

// Symbol is a ticker resolved against a market
type Symbol struct {
	Ticker string `json:"ticker"`
	Market Market `json:"market"`
	// Code is the market-qualified symbol sent to the data provider
	Code string `json:"code"`
}

func (s Symbol) String() string {
	return s.Code
}

// IsZero reports whether the symbol was never resolved
func (s Symbol) IsZero() bool {
	return s.Code == ""
}
