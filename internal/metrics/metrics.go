// Package metrics exposes Prometheus counters for the recommendation service.
//
// Metrics:
//   - printdesk_recommendations_total{status}: ranked lists served, by result status
//   - printdesk_suppliers_omitted_total: suppliers dropped because their history could not be read
//   - printdesk_recommendation_duration_seconds: end-to-end recommend latency
//   - printdesk_recommendation_cache_total{result}: cache hit / miss
//   - printdesk_score_snapshots_total: supplier rows written by the nightly snapshot
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/printdesk/backend/internal/contracts"
)

const namespace = "printdesk"

// Collector holds every metric the service records.
// A nil *Collector is valid and records nothing.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Collector struct {
	recommendations *prometheus.CounterVec
	omitted         prometheus.Counter
	duration        prometheus.Histogram
	cache           *prometheus.CounterVec
	snapshots       prometheus.Counter
}

// NewCollector creates the metrics and registers them on reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations served, by result status",
		}, []string{"status"}),
		omitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppliers_omitted_total",
			Help:      "Suppliers left out of a recommendation because their data could not be fetched",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time to build one recommendation",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_cache_total",
			Help:      "Recommendation cache lookups, by result",
		}, []string{"result"}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_snapshots_total",
			Help:      "Supplier score snapshot rows written",
		}),
	}

	for _, m := range []prometheus.Collector{c.recommendations, c.omitted, c.duration, c.cache, c.snapshots} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	// 0 값으로 미리 노출
	for _, s := range []contracts.RecommendationStatus{
		contracts.RecommendationOK,
		contracts.RecommendationPartial,
		contracts.RecommendationNoEligible,
		contracts.RecommendationFetchFailed,
	} {
		c.recommendations.WithLabelValues(string(s))
	}
	c.cache.WithLabelValues("hit")
	c.cache.WithLabelValues("miss")

	return c, nil
}

// RecordRecommendation records one computed recommendation
func (c *Collector) RecordRecommendation(status contracts.RecommendationStatus, omitted int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.recommendations.WithLabelValues(string(status)).Inc()
	if omitted > 0 {
		c.omitted.Add(float64(omitted))
	}
	c.duration.Observe(elapsed.Seconds())
}

// RecordCache records a cache lookup result
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cache.WithLabelValues("hit").Inc()
		return
	}
	c.cache.WithLabelValues("miss").Inc()
}

// RecordSnapshot records rows written by one snapshot run
func (c *Collector) RecordSnapshot(rows int) {
	if c == nil || rows <= 0 {
		return
	}
	c.snapshots.Add(float64(rows))
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
