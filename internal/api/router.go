package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/printdesk/backend/internal/api/handlers"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

// RouterOptions are the optional parts of the router
type RouterOptions struct {
	RateLimit float64      // requests per second on /api, 0 = unlimited
	RateBurst int
	Metrics   http.Handler // nil = no /metrics endpoint
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	recHandler *handlers.RecommendationHandler,
	scoringHandler *handlers.ScoringHandler,
	opts RouterOptions,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	if opts.RateLimit > 0 {
		api.Use(rateLimitMiddleware(opts.RateLimit, opts.RateBurst, log))
	}

	// Recommendation endpoints
	api.HandleFunc("/quote-items/{itemId:[0-9]+}/recommendations", recHandler.GetRecommendations).Methods("GET")
	api.HandleFunc("/suppliers/{supplierId:[0-9]+}/score", recHandler.GetSupplierScore).Methods("GET")

	// Scoring endpoints
	api.HandleFunc("/scoring/config", scoringHandler.GetConfig).Methods("GET")
	api.HandleFunc("/scoring/snapshots", scoringHandler.GetSnapshots).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "printdesk-api",
	})
}
