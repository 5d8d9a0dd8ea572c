package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/trogers1052/finance-eye/internal/dataaccess"
	"github.com/trogers1052/finance-eye/internal/models"
	"github.com/trogers1052/finance-eye/internal/presentation"
)

const (
	dateLayout = "2006-01-02"
	// DefaultLookbackDays is the range shown when the form has no start date
	DefaultLookbackDays = 550
	retryAfterSeconds   = 60
)

// DataService is the data access layer the handlers depend on
type DataService interface {
	ResolveSymbol(raw string, market models.Market) (models.Symbol, error)
	GetCompanyInfo(ctx context.Context, symbol models.Symbol) *models.CompanyInfo
	GetPriceHistory(ctx context.Context, symbol models.Symbol, start, end time.Time) (*models.PriceSeries, error)
	InvalidateSymbol(ctx context.Context, code string) (int, error)
}

// InvalidationPublisher broadcasts cache invalidations to other instances
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, symbol string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc       DataService
	publisher InvalidationPublisher
	logger    *slog.Logger
	now       func() time.Time
	page      *template.Template
}

// NewHandler creates a new Handler. publisher may be nil.
func NewHandler(svc DataService, publisher InvalidationPublisher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:       svc,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		page:      dashboardTemplate,
	}
}

// stockRequest is the parsed form shared by the stock routes
type stockRequest struct {
	Ticker    string
	Market    models.Market
	Start     time.Time
	End       time.Time
	ChartType presentation.ChartType
}

// badRequestError marks malformed query parameters
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func (h *Handler) parseStockRequest(r *http.Request) (stockRequest, error) {
	q := r.URL.Query()
	req := stockRequest{Ticker: q.Get("ticker")}
	if v, ok := mux.Vars(r)["ticker"]; ok {
		req.Ticker = v
	}

	market := q.Get("market")
	if market == "" {
		market = string(models.MarketBrazil)
	}
	m, err := models.ParseMarket(market)
	if err != nil {
		return req, &badRequestError{msg: err.Error()}
	}
	req.Market = m

	today := h.now().UTC()
	req.End = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if v := q.Get("end"); v != "" {
		if req.End, err = time.Parse(dateLayout, v); err != nil {
			return req, &badRequestError{msg: fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", v)}
		}
	}
	req.Start = req.End.AddDate(0, 0, -DefaultLookbackDays)
	if v := q.Get("start"); v != "" {
		if req.Start, err = time.Parse(dateLayout, v); err != nil {
			return req, &badRequestError{msg: fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", v)}
		}
	}

	if req.ChartType, err = presentation.ParseChartType(q.Get("type")); err != nil {
		return req, &badRequestError{msg: err.Error()}
	}
	return req, nil
}

// ResolveSymbol handles GET /api/v1/symbols/resolve
func (h *Handler) ResolveSymbol(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseStockRequest(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	symbol, err := h.svc.ResolveSymbol(req.Ticker, req.Market)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, symbol)
}

// GetCompanyInfo handles GET /api/v1/stocks/{ticker}/info
func (h *Handler) GetCompanyInfo(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseStockRequest(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	symbol, err := h.svc.ResolveSymbol(req.Ticker, req.Market)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.svc.GetCompanyInfo(r.Context(), symbol))
}

// GetPriceHistory handles GET /api/v1/stocks/{ticker}/history
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	_, series, ok := h.fetchSeries(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetChart handles GET /api/v1/stocks/{ticker}/chart
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	req, series, ok := h.fetchSeries(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, presentation.RenderChart(series, req.ChartType, ""))
}

// GetReturns handles GET /api/v1/stocks/{ticker}/returns
func (h *Handler) GetReturns(w http.ResponseWriter, r *http.Request) {
	windows, err := parseWindows(r.URL.Query().Get("windows"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	_, series, ok := h.fetchSeries(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, presentation.ComputeReturns(series, windows...))
}

// dashboardResponse bundles everything the dashboard shows
type dashboardResponse struct {
	Symbol  models.Symbol        `json:"symbol"`
	Company *models.CompanyInfo  `json:"company"`
	Chart   *presentation.Figure `json:"chart"`
	Returns presentation.Returns `json:"returns"`
}

// GetDashboard handles GET /api/v1/stocks/{ticker}/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseStockRequest(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	symbol, err := h.svc.ResolveSymbol(req.Ticker, req.Market)
	if err != nil {
		h.respondError(w, err)
		return
	}

	company := h.svc.GetCompanyInfo(r.Context(), symbol)
	series, err := h.svc.GetPriceHistory(r.Context(), symbol, req.Start, req.End)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboardResponse{
		Symbol:  symbol,
		Company: company,
		Chart:   presentation.RenderChart(series, req.ChartType, company.Name),
		Returns: presentation.ComputeReturns(series),
	})
}

// InvalidateCache handles DELETE /api/v1/cache/{ticker}
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseStockRequest(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	symbol, err := h.svc.ResolveSymbol(req.Ticker, req.Market)
	if err != nil {
		h.respondError(w, err)
		return
	}

	evicted, err := h.svc.InvalidateSymbol(r.Context(), symbol.Code)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishInvalidation(r.Context(), symbol.Code); err != nil {
			// other instances keep their copy until TTL; the local one is already gone
			h.logger.Warn("failed to publish invalidation", "symbol", symbol.Code, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"symbol":  symbol.Code,
		"evicted": evicted,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) fetchSeries(w http.ResponseWriter, r *http.Request) (stockRequest, *models.PriceSeries, bool) {
	req, err := h.parseStockRequest(r)
	if err != nil {
		h.respondError(w, err)
		return req, nil, false
	}
	symbol, err := h.svc.ResolveSymbol(req.Ticker, req.Market)
	if err != nil {
		h.respondError(w, err)
		return req, nil, false
	}
	series, err := h.svc.GetPriceHistory(r.Context(), symbol, req.Start, req.End)
	if err != nil {
		h.respondError(w, err)
		return req, nil, false
	}
	return req, series, true
}

func parseWindows(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var windows []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, &badRequestError{msg: fmt.Sprintf("invalid window %q", part)}
		}
		windows = append(windows, n)
	}
	return windows, nil
}

// classifyError maps an error to a status code and a message safe to show users
func classifyError(err error) (int, string) {
	var (
		badReq      *badRequestError
		invalidSym  *dataaccess.InvalidSymbolError
		invalidRng  *dataaccess.InvalidRangeError
		rateLimited *dataaccess.RateLimitedError
		unavailable *dataaccess.DataUnavailableError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest, badReq.Error()
	case errors.As(err, &invalidSym):
		return http.StatusBadRequest, invalidSym.Error()
	case errors.As(err, &invalidRng):
		return http.StatusBadRequest, invalidRng.Error()
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests,
			fmt.Sprintf("the data provider is rate limiting requests for %s, please try again later", rateLimited.Symbol)
	case errors.As(err, &unavailable):
		return http.StatusBadGateway,
			fmt.Sprintf("could not fetch data for %s: the ticker may be invalid, delisted or have no data in the period", unavailable.Symbol)
	default:
		return http.StatusInternalServerError, "unexpected error"
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status, msg := classifyError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
