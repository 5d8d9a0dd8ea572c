package dataaccess

import (
	"strings"

	"github.com/trogers1052/finance-eye/internal/models"
)

// marketSuffixes maps each market to the suffix the provider expects
var marketSuffixes = map[models.Market]string{
	models.MarketBrazil: ".SA",
	models.MarketUS:     "",
}

// ResolveSymbol turns raw user input into a market-qualified symbol.
// A suffix belonging to another known market is replaced.
func ResolveSymbol(raw string, market models.Market) (models.Symbol, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return models.Symbol{}, &InvalidSymbolError{Input: raw, Reason: "ticker is required"}
	}

	suffix, ok := marketSuffixes[market]
	if !ok {
		return models.Symbol{}, &InvalidSymbolError{Input: raw, Reason: "unknown market " + string(market)}
	}

	for m, s := range marketSuffixes {
		if m != market && s != "" && strings.HasSuffix(ticker, s) {
			ticker = strings.TrimSuffix(ticker, s)
		}
	}
	ticker = strings.TrimSuffix(ticker, suffix)
	if ticker == "" {
		return models.Symbol{}, &InvalidSymbolError{Input: raw, Reason: "ticker is required"}
	}

	return models.Symbol{
		Ticker: ticker,
		Market: market,
		Code:   ticker + suffix,
	}, nil
}

// ResolveSymbolString parses the market name before resolving
func ResolveSymbolString(raw, market string) (models.Symbol, error) {
	m, err := models.ParseMarket(market)
	if err != nil {
		return models.Symbol{}, &InvalidSymbolError{Input: raw, Reason: err.Error()}
	}
	return ResolveSymbol(raw, m)
}
