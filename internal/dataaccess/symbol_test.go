package dataaccess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/finance-eye/internal/models"
)

func TestResolveSymbol(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		market models.Market
		want   string
	}{
		{"appends B3 suffix", "PETR4", models.MarketBrazil, "PETR4.SA"},
		{"idempotent for B3", "PETR4.SA", models.MarketBrazil, "PETR4.SA"},
		{"US unchanged", "AAPL", models.MarketUS, "AAPL"},
		{"trims and upper-cases", "  vale3 ", models.MarketBrazil, "VALE3.SA"},
		{"lower-case suffix", "itub4.sa", models.MarketBrazil, "ITUB4.SA"},
		{"strips B3 suffix for US", "AAPL.SA", models.MarketUS, "AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := ResolveSymbol(tt.raw, tt.market)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sym.Code)
			assert.Equal(t, tt.want, sym.String())
			assert.Equal(t, tt.market, sym.Market)
		})
	}

	t.Run("resolving twice is stable", func(t *testing.T) {
		once, err := ResolveSymbol("BBAS3", models.MarketBrazil)
		require.NoError(t, err)
		twice, err := ResolveSymbol(once.Code, models.MarketBrazil)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}

func TestResolveSymbolErrors(t *testing.T) {
	for _, raw := range []string{"", "   ", ".SA"} {
		_, err := ResolveSymbol(raw, models.MarketBrazil)
		var invalid *InvalidSymbolError
		assert.ErrorAs(t, err, &invalid, "input %q", raw)
	}

	_, err := ResolveSymbol("AAPL", models.Market("JP"))
	var invalid *InvalidSymbolError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "unknown market")
}

func TestResolveSymbolString(t *testing.T) {
	sym, err := ResolveSymbolString("petr4", "b3")
	require.NoError(t, err)
	assert.Equal(t, "PETR4.SA", sym.Code)

	_, err = ResolveSymbolString("petr4", "mars")
	var invalid *InvalidSymbolError
	assert.ErrorAs(t, err, &invalid)
}
