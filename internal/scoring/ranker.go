package scoring

import (
	"math"
	"sort"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

// Candidate is one supplier offered to the ranker with its fetched data
type Candidate struct {
	Supplier contracts.Supplier
	Jobs     []contracts.JobRecord

	// OpenJobs, when set, is the authoritative current-load snapshot for this call.
	// Otherwise current load is counted from Jobs.
	OpenJobs *int

	// Err is set when the supplier's history could not be fetched;
	// the supplier is then omitted instead of scored.
	Err error
}

// Ranking is the ranker's output before the service wraps it
type Ranking struct {
	Entries  []contracts.RecommendationEntry
	Omitted  []contracts.Omission
	Filtered int // inactive suppliers dropped before scoring

	// Metrics holds the unrounded aggregate of every scored supplier, by id
	Metrics map[int64]contracts.AggregatedMetrics
}

// Status distinguishes an empty pool from a failed fetch
func (r *Ranking) Status() contracts.RecommendationStatus {
	switch {
	case len(r.Entries) > 0 && len(r.Omitted) > 0:
		return contracts.RecommendationPartial
	case len(r.Entries) > 0:
		return contracts.RecommendationOK
	case len(r.Omitted) > 0:
		return contracts.RecommendationFetchFailed
	default:
		return contracts.RecommendationNoEligible
	}
}

// Ranker scores candidates and orders them
// ⭐ SSOT: 공급사 추천 순위 로직은 여기서만
type Ranker struct {
	scorer *Scorer
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(scorer *Scorer, log *logger.Logger) *Ranker {
	if log == nil {
		log = logger.Nop()
	}
	return &Ranker{
		scorer: scorer,
		logger: log,
	}
}

// Recommend filters to active suppliers, scores them, sorts by total score
// (ties: lower supplier id first) and assigns dense ranks 1..N.
// topK <= 0 returns the full list.
func (r *Ranker) Recommend(candidates []Candidate, item contracts.ItemContext, topK int) Ranking {
	result := Ranking{
		Entries: make([]contracts.RecommendationEntry, 0, len(candidates)),
		Metrics: make(map[int64]contracts.AggregatedMetrics, len(candidates)),
	}

	for i := range candidates {
		c := &candidates[i]

		if !c.Supplier.Status.IsEligible() {
			result.Filtered++
			continue
		}

		if c.Err != nil {
			result.Omitted = append(result.Omitted, contracts.Omission{
				SupplierID: c.Supplier.ID,
				Reason:     c.Err.Error(),
			})
			continue
		}

		metrics := r.Metrics(*c, item)
		result.Metrics[c.Supplier.ID] = metrics
		breakdown := r.scorer.Score(c.Supplier, metrics, item)

		result.Entries = append(result.Entries, contracts.RecommendationEntry{
			SupplierID:  c.Supplier.ID,
			Name:        c.Supplier.Name,
			CompanyName: c.Supplier.CompanyName,
			Scores:      breakdown,
			Metrics:     displayMetrics(metrics),
		})
	}

	SortEntries(result.Entries)

	for i := range result.Entries {
		result.Entries[i].Rank = i + 1
	}

	if topK > 0 && len(result.Entries) > topK {
		result.Entries = result.Entries[:topK]
	}

	sort.Slice(result.Omitted, func(i, j int) bool {
		return result.Omitted[i].SupplierID < result.Omitted[j].SupplierID
	})

	fields := map[string]interface{}{
		"item_id":  item.ItemID,
		"ranked":   len(result.Entries),
		"omitted":  len(result.Omitted),
		"filtered": result.Filtered,
	}
	if len(result.Entries) > 0 {
		fields["top_supplier"] = result.Entries[0].SupplierID
		fields["top_score"] = result.Entries[0].Scores.TotalScore
	}
	r.logger.WithFields(fields).Debug("Supplier ranking completed")

	return result
}

// Metrics aggregates a candidate's history, scoped to the item when requested.
// Current load always covers every open job of the supplier.
func (r *Ranker) Metrics(c Candidate, item contracts.ItemContext) contracts.AggregatedMetrics {
	metrics := Aggregate(c.Supplier.ID, ScopeJobs(c.Jobs, item))
	if c.OpenJobs != nil {
		metrics.CurrentLoad = *c.OpenJobs
	} else {
		metrics.CurrentLoad = CurrentLoad(c.Jobs)
	}
	return metrics
}

// SortEntries orders by total score descending, then supplier id ascending
func SortEntries(entries []contracts.RecommendationEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		si, sj := entries[i].Scores.TotalScore, entries[j].Scores.TotalScore
		if si != sj {
			return si > sj
		}
		return entries[i].SupplierID < entries[j].SupplierID
	})
}

func displayMetrics(m contracts.AggregatedMetrics) contracts.DisplayMetrics {
	d := contracts.DisplayMetrics{
		CompletedJobs: m.CompletedJobs,
		CurrentLoad:   m.CurrentLoad,
	}
	if m.PromiseKeepingRate != nil {
		pct := math.Round(*m.PromiseKeepingRate*1000) / 10
		d.PromiseKeepingPct = &pct
	}
	if m.AverageRating != nil {
		avg := math.Round(*m.AverageRating*10) / 10
		d.AverageRating = &avg
	}
	return d
}
