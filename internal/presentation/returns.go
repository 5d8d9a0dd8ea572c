package presentation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/finance-eye/internal/models"
)

// DefaultWindows are the trailing windows, in trading days, shown on the dashboard
var DefaultWindows = []int{30, 90, 365}

var hundred = decimal.NewFromInt(100)

// WindowReturn is the trailing return over one window. Available is false
// when the series is too short or the base close is zero.
type WindowReturn struct {
	Window    int             `json:"window"`
	Percent   decimal.Decimal `json:"percent"`
	Available bool            `json:"available"`
}

// Label renders the return as "12.34%" or "N/A"
func (r WindowReturn) Label() string {
	if !r.Available {
		return "N/A"
	}
	return r.Percent.StringFixed(2) + "%"
}

// Title names the window, e.g. "30 days"
func (r WindowReturn) Title() string {
	return fmt.Sprintf("%d days", r.Window)
}

// Returns holds one result per requested window, in request order
type Returns []WindowReturn

// Get returns the result for window
func (rs Returns) Get(window int) (WindowReturn, bool) {
	for _, r := range rs {
		if r.Window == window {
			return r, true
		}
	}
	return WindowReturn{}, false
}

// ComputeReturns computes (close[last] - close[last-W]) / close[last-W] * 100
// for each window W. Windows needing more than the available history are
// marked unavailable. No windows means DefaultWindows.
func ComputeReturns(series *models.PriceSeries, windows ...int) Returns {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	closes := series.Closes()
	last := len(closes) - 1

	out := make(Returns, 0, len(windows))
	for _, w := range windows {
		r := WindowReturn{Window: w}
		if w > 0 && len(closes) >= w+1 {
			base := closes[last-w]
			if !base.IsZero() {
				r.Percent = closes[last].Sub(base).Div(base).Mul(hundred)
				r.Available = true
			}
		}
		out = append(out, r)
	}
	return out
}
