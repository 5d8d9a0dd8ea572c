package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarket(t *testing.T) {
	tests := []struct {
		input   string
		want    Market
		wantErr bool
	}{
		{"BR", MarketBrazil, false},
		{" b3 ", MarketBrazil, false},
		{"brasil", MarketBrazil, false},
		{"us", MarketUS, false},
		{"NASDAQ", MarketUS, false},
		{"", "", true},
		{"LSE", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMarket(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceSeries(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bar := func(offset int, close int64) PriceBar {
		return PriceBar{Date: day.AddDate(0, 0, offset), Close: decimal.NewFromInt(close)}
	}

	t.Run("nil series is empty", func(t *testing.T) {
		var s *PriceSeries
		assert.Equal(t, 0, s.Len())
		assert.True(t, s.IsSorted())
		assert.Empty(t, s.Closes())
		_, ok := s.Last()
		assert.False(t, ok)
	})

	t.Run("ordered series", func(t *testing.T) {
		s := &PriceSeries{Bars: []PriceBar{bar(0, 10), bar(1, 11), bar(2, 12)}}
		assert.True(t, s.IsSorted())
		last, ok := s.Last()
		require.True(t, ok)
		assert.True(t, last.Close.Equal(decimal.NewFromInt(12)))
		assert.Len(t, s.Closes(), 3)
	})

	t.Run("duplicate or reversed dates are not sorted", func(t *testing.T) {
		assert.False(t, (&PriceSeries{Bars: []PriceBar{bar(1, 10), bar(0, 11)}}).IsSorted())
		assert.False(t, (&PriceSeries{Bars: []PriceBar{bar(0, 10), bar(0, 11)}}).IsSorted())
	})
}

func TestFallbackCompanyInfo(t *testing.T) {
	info := FallbackCompanyInfo("PETR4.SA")
	assert.Equal(t, "PETR4.SA", info.Name)
	assert.Equal(t, "PETR4.SA", info.Symbol)
	assert.True(t, info.Degraded)
}
