package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/recommend"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

const (
	defaultSnapshotLimit = 100
	maxSnapshotLimit     = 1000
)

// ScoringHandler exposes the active coefficients and stored score snapshots
type ScoringHandler struct {
	svc    Recommender
	logger *logger.Logger
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(svc Recommender, log *logger.Logger) *ScoringHandler {
	return &ScoringHandler{
		svc:    svc,
		logger: log,
	}
}

// GetConfig returns the coefficients in use, their hash and the total score band
// GET /api/scoring/config
func (h *ScoringHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.ScoringConfig()
	lo, hi := cfg.Band()

	respondSuccess(w, map[string]interface{}{
		"hash":         h.svc.ConfigHash(),
		"coefficients": cfg,
		"band": map[string]float64{
			"min": lo,
			"max": hi,
		},
	})
}

// GetSnapshots returns the latest nightly score snapshot by rank
// GET /api/scoring/snapshots?limit=
func (h *ScoringHandler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultSnapshotLimit)
	if !ok || limit == 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected a positive integer)")
		return
	}
	if limit > maxSnapshotLimit {
		limit = maxSnapshotLimit
	}

	rows, err := h.svc.LatestSnapshots(r.Context(), limit)
	if err != nil {
		if errors.Is(err, recommend.ErrSnapshotStoreMissing) {
			respondError(w, http.StatusServiceUnavailable, "Score snapshots not available")
			return
		}
		h.logger.WithError(err).Error("Failed to get score snapshots")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve score snapshots")
		return
	}

	if rows == nil {
		rows = []contracts.ScoreSnapshot{}
	}

	date := ""
	if len(rows) > 0 {
		date = rows[0].SnapshotDate.Format("2006-01-02")
	}

	respondSuccess(w, map[string]interface{}{
		"date":  date,
		"count": len(rows),
		"items": rows,
	})
}
