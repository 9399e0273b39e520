package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/recommend"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

// Recommender is the part of recommend.Service the HTTP layer uses
type Recommender interface {
	Recommend(ctx context.Context, item contracts.ItemContext, topK int) (*contracts.Recommendation, error)
	ScoreSupplier(ctx context.Context, supplierID int64, item contracts.ItemContext) (*recommend.SupplierScore, error)
	LatestSnapshots(ctx context.Context, limit int) ([]contracts.ScoreSnapshot, error)
	ScoringConfig() *scoringconfig.Config
	ConfigHash() string
}

// RecommendationHandler handles supplier recommendation endpoints
// ⭐ SSOT: 추천 API 핸들러는 이 구조체에서만
type RecommendationHandler struct {
	svc         Recommender
	defaultTopK int
	logger      *logger.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(svc Recommender, defaultTopK int, log *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		svc:         svc,
		defaultTopK: defaultTopK,
		logger:      log,
	}
}

// GetRecommendations ranks suppliers for one quote item
// GET /api/quote-items/{itemId}/recommendations?category=&product=&quantity=&topK=&scope=category
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(mux.Vars(r)["itemId"])
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	item, msg := itemFromQuery(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	item.ItemID = itemID

	topK, ok := queryInt(r, "topK", h.defaultTopK)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'topK' (expected a non-negative integer)")
		return
	}

	rec, err := h.svc.Recommend(r.Context(), item, topK)
	if err != nil {
		h.logger.WithItem(itemID).WithError(err).Error("Failed to build recommendation")
		switch {
		case errors.Is(err, recommend.ErrSupplierPoolUnavailable):
			respondError(w, http.StatusBadGateway, "Supplier pool unavailable")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusServiceUnavailable, "Request cancelled")
		default:
			respondError(w, http.StatusInternalServerError, "Failed to build recommendation")
		}
		return
	}

	// 전원 조회 실패: 빈 목록이지만 "후보 없음"과 구분되도록 success=false
	if rec.Status == contracts.RecommendationFetchFailed {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"data":    rec,
		})
		return
	}

	respondSuccess(w, rec)
}

// GetSupplierScore returns one supplier's score breakdown
// GET /api/suppliers/{supplierId}/score?category=&product=&quantity=
func (h *RecommendationHandler) GetSupplierScore(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := pathID(mux.Vars(r)["supplierId"])
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid supplier id")
		return
	}

	item, msg := itemFromQuery(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	score, err := h.svc.ScoreSupplier(r.Context(), supplierID, item)
	if err != nil {
		if errors.Is(err, contracts.ErrSupplierNotFound) {
			respondError(w, http.StatusNotFound, "Supplier not found")
			return
		}
		h.logger.WithSupplier(supplierID).WithError(err).Error("Failed to score supplier")
		respondError(w, http.StatusInternalServerError, "Failed to score supplier")
		return
	}

	respondSuccess(w, score)
}

// itemFromQuery reads the item context shared by both endpoints.
// A non-empty message means the request is invalid.
func itemFromQuery(r *http.Request) (contracts.ItemContext, string) {
	q := r.URL.Query()

	quantity, ok := queryInt(r, "quantity", 0)
	if !ok {
		return contracts.ItemContext{}, "Invalid 'quantity' (expected a non-negative integer)"
	}

	item := contracts.ItemContext{
		Category:   q.Get("category"),
		ProductKey: q.Get("product"),
		Quantity:   quantity,
	}

	switch q.Get("scope") {
	case "", "all":
	case "category":
		if item.Category == "" {
			return contracts.ItemContext{}, "'scope=category' requires 'category'"
		}
		item.ScopeToCategory = true
	default:
		return contracts.ItemContext{}, "Invalid 'scope' (expected 'category' or 'all')"
	}

	return item, ""
}
