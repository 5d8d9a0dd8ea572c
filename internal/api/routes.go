package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(handler.requestID, handler.accessLog)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Dashboard page
	r.HandleFunc("/", handler.Dashboard).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/symbols/resolve", handler.ResolveSymbol).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/info", handler.GetCompanyInfo).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/history", handler.GetPriceHistory).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/chart", handler.GetChart).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/returns", handler.GetReturns).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/dashboard", handler.GetDashboard).Methods("GET")
	api.HandleFunc("/cache/{ticker}", handler.InvalidateCache).Methods("DELETE")

	return r
}
