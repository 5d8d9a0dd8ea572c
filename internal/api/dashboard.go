package api

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/trogers1052/finance-eye/internal/dataaccess"
	"github.com/trogers1052/finance-eye/internal/models"
	"github.com/trogers1052/finance-eye/internal/presentation"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

var dashboardMarkets = []models.Market{models.MarketBrazil, models.MarketUS}

type dashboardView struct {
	Ticker     string
	Market     models.Market
	Markets    []models.Market
	Start      string
	End        string
	ChartType  presentation.ChartType
	ChartTypes []presentation.ChartType
	Submitted  bool

	Symbol  string
	Company *models.CompanyInfo
	Figure  template.JS
	Returns presentation.Returns

	Error   string
	Warning string
}

// Dashboard handles GET /. The form submits back to the same route.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view := h.buildDashboard(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := h.page.Execute(w, view); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}

func (h *Handler) buildDashboard(r *http.Request) dashboardView {
	view := dashboardView{
		Market:     models.MarketBrazil,
		Markets:    dashboardMarkets,
		ChartType:  presentation.ChartLine,
		ChartTypes: presentation.ChartTypes,
		Submitted:  r.URL.Query().Has("ticker"),
	}

	req, err := h.parseStockRequest(r)
	view.Ticker = req.Ticker
	if req.Market != "" {
		view.Market = req.Market
	}
	if !req.Start.IsZero() {
		view.Start = req.Start.Format(dateLayout)
	}
	if !req.End.IsZero() {
		view.End = req.End.Format(dateLayout)
	}
	if req.ChartType != "" {
		view.ChartType = req.ChartType
	}
	if !view.Submitted {
		return view
	}
	if err != nil {
		_, view.Error = classifyError(err)
		return view
	}

	symbol, err := h.svc.ResolveSymbol(req.Ticker, req.Market)
	if err != nil {
		_, view.Error = classifyError(err)
		return view
	}
	view.Symbol = symbol.Code

	view.Company = h.svc.GetCompanyInfo(r.Context(), symbol)
	series, err := h.svc.GetPriceHistory(r.Context(), symbol, req.Start, req.End)
	if err != nil {
		_, view.Error = classifyError(err)
		var unavailable *dataaccess.DataUnavailableError
		if errors.As(err, &unavailable) {
			view.Warning = marketHint(symbol.Market)
		}
		return view
	}

	figure := presentation.RenderChart(series, req.ChartType, view.Company.Name)
	data, err := json.Marshal(figure)
	if err != nil {
		h.logger.Error("failed to encode chart", "symbol", symbol.Code, "error", err)
		view.Error = "could not render the chart"
		return view
	}
	view.Figure = template.JS(data)
	view.Returns = presentation.ComputeReturns(series)
	return view
}

func marketHint(m models.Market) string {
	switch m {
	case models.MarketBrazil:
		return "Check that the B3 ticker is correct (e.g. PETR4) and that the Brazil (B3) market is selected."
	case models.MarketUS:
		return "Check that the US ticker is correct (e.g. AAPL) and that the US (NYSE/NASDAQ) market is selected."
	default:
		return ""
	}
}
