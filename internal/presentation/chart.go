// Package presentation turns price series into chart figures and return
// statistics. Everything here is a pure function of its input.
package presentation

import (
	"fmt"
	"strings"

	"github.com/trogers1052/finance-eye/internal/models"
)

// ChartType selects how a series is drawn
type ChartType string

const (
	ChartLine        ChartType = "line"
	ChartArea        ChartType = "area"
	ChartCandlestick ChartType = "candlestick"
)

// ChartTypes lists the supported types in form order
var ChartTypes = []ChartType{ChartLine, ChartArea, ChartCandlestick}

// ParseChartType validates user input; empty input means line
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ChartLine:
		return ChartLine, nil
	case ChartArea:
		return ChartArea, nil
	case ChartCandlestick:
		return ChartCandlestick, nil
	default:
		return "", fmt.Errorf("unknown chart type %q", s)
	}
}

// Label is the name shown in the dashboard selector
func (c ChartType) Label() string {
	switch c {
	case ChartArea:
		return "Area"
	case ChartCandlestick:
		return "Candlestick"
	default:
		return "Line"
	}
}

// Figure is a Plotly figure; it marshals to what Plotly.newPlot expects
type Figure struct {
	Data        []Trace `json:"data"`
	Layout      Layout  `json:"layout"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// Trace is one Plotly trace. Scatter traces use Y, candlesticks use OHLC.
type Trace struct {
	Type  string    `json:"type"`
	Name  string    `json:"name"`
	Mode  string    `json:"mode,omitempty"`
	Fill  string    `json:"fill,omitempty"`
	X     []string  `json:"x"`
	Y     []float64 `json:"y,omitempty"`
	Open  []float64 `json:"open,omitempty"`
	High  []float64 `json:"high,omitempty"`
	Low   []float64 `json:"low,omitempty"`
	Close []float64 `json:"close,omitempty"`
}

type Layout struct {
	Title       string       `json:"title"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	Template    string       `json:"template"`
	HoverMode   string       `json:"hovermode"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type Axis struct {
	Title string `json:"title"`
}

type Annotation struct {
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

const dateLayout = "2006-01-02"

// RenderChart draws series as the requested chart type. Unknown types
// draw a line. A nil or empty series yields a placeholder figure.
func RenderChart(series *models.PriceSeries, chartType ChartType, companyName string) *Figure {
	symbol := ""
	if series != nil {
		symbol = series.Symbol
	}

	fig := &Figure{
		Layout: Layout{
			Title:     chartTitle(symbol, companyName),
			XAxis:     Axis{Title: "Date"},
			YAxis:     Axis{Title: "Price"},
			Template:  "plotly_white",
			HoverMode: "x unified",
		},
	}

	if series.Len() == 0 {
		fig.Placeholder = true
		fig.Data = []Trace{}
		fig.Layout.Annotations = []Annotation{{
			Text: "No data to display",
			XRef: "paper",
			YRef: "paper",
			X:    0.5,
			Y:    0.5,
		}}
		return fig
	}

	x := make([]string, series.Len())
	for i, b := range series.Bars {
		x[i] = b.Date.Format(dateLayout)
	}

	if chartType == ChartCandlestick {
		t := Trace{
			Type:  "candlestick",
			Name:  symbol,
			X:     x,
			Open:  make([]float64, series.Len()),
			High:  make([]float64, series.Len()),
			Low:   make([]float64, series.Len()),
			Close: make([]float64, series.Len()),
		}
		for i, b := range series.Bars {
			t.Open[i] = b.Open.InexactFloat64()
			t.High[i] = b.High.InexactFloat64()
			t.Low[i] = b.Low.InexactFloat64()
			t.Close[i] = b.Close.InexactFloat64()
		}
		fig.Data = []Trace{t}
		return fig
	}

	t := Trace{
		Type: "scatter",
		Name: symbol,
		Mode: "lines",
		X:    x,
		Y:    make([]float64, series.Len()),
	}
	if chartType == ChartArea {
		t.Fill = "tozeroy"
	}
	for i, b := range series.Bars {
		t.Y[i] = b.Close.InexactFloat64()
	}
	fig.Data = []Trace{t}
	return fig
}

func chartTitle(symbol, companyName string) string {
	title := "Price history"
	if symbol != "" {
		title += " – " + symbol
	}
	if companyName != "" && companyName != symbol {
		title += " — " + companyName
	}
	return title
}
