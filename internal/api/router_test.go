package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/printdesk/backend/internal/api/handlers"
	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/recommend"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

type stubRecommender struct {
	panicOnRecommend bool
}

func (s *stubRecommender) Recommend(ctx context.Context, item contracts.ItemContext, topK int) (*contracts.Recommendation, error) {
	if s.panicOnRecommend {
		panic("boom")
	}
	return &contracts.Recommendation{
		ItemID:      item.ItemID,
		Status:      contracts.RecommendationNoEligible,
		Entries:     []contracts.RecommendationEntry{},
		GeneratedAt: time.Now(),
	}, nil
}

func (s *stubRecommender) ScoreSupplier(ctx context.Context, id int64, item contracts.ItemContext) (*recommend.SupplierScore, error) {
	return nil, contracts.ErrSupplierNotFound
}

func (s *stubRecommender) LatestSnapshots(ctx context.Context, limit int) ([]contracts.ScoreSnapshot, error) {
	return nil, nil
}

func (s *stubRecommender) ScoringConfig() *scoringconfig.Config { return scoringconfig.Default() }
func (s *stubRecommender) ConfigHash() string                   { return "hash" }

func newTestRouter(svc handlers.Recommender, opts RouterOptions) http.Handler {
	log := logger.Nop()
	return NewRouter(
		handlers.NewRecommendationHandler(svc, 5, log),
		handlers.NewScoringHandler(svc, log),
		opts,
		log,
	)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(&stubRecommender{}, RouterOptions{})

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/api/quote-items/42/recommendations", http.StatusOK},
		{"/api/quote-items/abc/recommendations", http.StatusNotFound},
		{"/api/suppliers/7/score", http.StatusNotFound}, // supplier missing
		{"/api/scoring/config", http.StatusOK},
		{"/api/scoring/snapshots", http.StatusOK},
		{"/metrics", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, get(r, tt.path).Code)
		})
	}
}

func TestRouter_Health(t *testing.T) {
	rr := get(newTestRouter(&stubRecommender{}, RouterOptions{}), "/health")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics\n"))
	})
	r := newTestRouter(&stubRecommender{}, RouterOptions{Metrics: metrics})

	rr := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "# metrics\n", rr.Body.String())
}

func TestRouter_RateLimit(t *testing.T) {
	r := newTestRouter(&stubRecommender{}, RouterOptions{RateLimit: 0.001, RateBurst: 2})

	assert.Equal(t, http.StatusOK, get(r, "/api/scoring/config").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/scoring/config").Code)

	rr := get(r, "/api/scoring/config")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	// health is outside the limited subrouter
	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	r := newTestRouter(&stubRecommender{panicOnRecommend: true}, RouterOptions{})

	rr := get(r, "/api/quote-items/1/recommendations")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")
}
