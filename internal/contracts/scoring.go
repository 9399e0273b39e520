package contracts

import "time"

// AggregatedMetrics is the per-supplier reduction of job history
// Rates are nil when their denominator is zero (undefined, not 0%)
type AggregatedMetrics struct {
	SupplierID              int64    `json:"supplier_id"`
	CompletedJobs           int      `json:"completed_jobs"`
	PromiseKeepingRate      *float64 `json:"promise_keeping_rate"`
	CourierConfirmationRate *float64 `json:"courier_confirmation_rate"`
	EarlyDeliveryRate       *float64 `json:"early_delivery_rate"`
	CurrentLoad             int      `json:"current_load"`

	// 표시용 보조 지표 (점수에는 반영 안 함)
	TimedJobs     int      `json:"timed_jobs"`     // completed jobs with a valid duration
	CourierChecks int      `json:"courier_checks"` // completed jobs with a courier verdict
	AnomalousJobs int      `json:"anomalous_jobs"` // completed jobs with negative duration
	CancelledJobs int      `json:"cancelled_jobs"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// IsNewSupplier reports whether the supplier has no completed history
func (m *AggregatedMetrics) IsNewSupplier() bool {
	return m.CompletedJobs == 0
}

// ScoreComponent is one named delta with its audit description
type ScoreComponent struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// ScoreBreakdown is the transparent composite score of one supplier
// ⭐ SSOT: 공급사 점수 구성은 이 구조체로만 전달
type ScoreBreakdown struct {
	SupplierID    int64          `json:"supplier_id"`
	Base          ScoreComponent `json:"base"`
	Price         ScoreComponent `json:"price"`
	Promise       ScoreComponent `json:"promise"`
	Courier       ScoreComponent `json:"courier"`
	Early         ScoreComponent `json:"early"`
	Workload      ScoreComponent `json:"workload"`
	TotalScore    float64        `json:"total_score"`
	IsNewSupplier bool           `json:"is_new_supplier"`
	Grade         Grade          `json:"grade"`
}

// Grade is the display band used by the assignment screen
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

// DisplayMetrics is the subset of AggregatedMetrics shown next to a recommendation
type DisplayMetrics struct {
	CompletedJobs     int      `json:"completed_jobs"`
	PromiseKeepingPct *float64 `json:"promise_keeping_pct"`
	CurrentLoad       int      `json:"current_load"`
	AverageRating     *float64 `json:"average_rating,omitempty"`
}

// RecommendationEntry is one ranked supplier
type RecommendationEntry struct {
	SupplierID  int64          `json:"supplier_id"`
	Name        string         `json:"name"`
	CompanyName string         `json:"company_name"`
	Rank        int            `json:"rank"` // 1-based, dense
	Scores      ScoreBreakdown `json:"scores"`
	Metrics     DisplayMetrics `json:"metrics"`
}

// RecommendationStatus tells the caller why a list may be empty
type RecommendationStatus string

const (
	RecommendationOK          RecommendationStatus = "ok"
	RecommendationPartial     RecommendationStatus = "partial"
	RecommendationNoEligible  RecommendationStatus = "no_eligible_suppliers"
	RecommendationFetchFailed RecommendationStatus = "fetch_failed"
)

// Omission records a supplier dropped from the pool because its data was unavailable
type Omission struct {
	SupplierID int64  `json:"supplier_id"`
	Reason     string `json:"reason"`
}

// Recommendation is the ranked result for one quote item
type Recommendation struct {
	RunID       string                `json:"run_id"`
	ItemID      int64                 `json:"item_id"`
	Category    string                `json:"category,omitempty"`
	Status      RecommendationStatus  `json:"status"`
	Entries     []RecommendationEntry `json:"entries"`
	Omitted     []Omission            `json:"omitted,omitempty"`
	Warnings    []string              `json:"warnings,omitempty"`
	ConfigHash  string                `json:"config_hash"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// Top returns the first-ranked entry, if any
func (r *Recommendation) Top() (*RecommendationEntry, bool) {
	if len(r.Entries) == 0 {
		return nil, false
	}
	return &r.Entries[0], true
}

// ItemContext describes the quote item suppliers are ranked for
type ItemContext struct {
	ItemID          int64          `json:"item_id"`
	Category        string         `json:"category,omitempty"`
	ProductKey      string         `json:"product_key,omitempty"` // size/material/finish combination
	Quantity        int            `json:"quantity,omitempty"`
	ScopeToCategory bool           `json:"scope_to_category"` // only score history from the same category
	Prices          *PriceSnapshot `json:"prices,omitempty"`
}

// PriceSnapshot holds competing unit prices for one item across suppliers
type PriceSnapshot struct {
	ProductKey      string            `json:"product_key"`
	Quantity        int               `json:"quantity"`
	Prices          map[int64]float64 `json:"prices"`                     // supplier id -> unit price
	CategoryAverage *float64          `json:"category_average,omitempty"` // catalog-wide average for the category
	FetchedAt       time.Time         `json:"fetched_at"`
}

// ScoreSnapshot is a persisted daily score row for the supplier dashboard
type ScoreSnapshot struct {
	BatchID            string    `json:"batch_id"`
	SnapshotDate       time.Time `json:"snapshot_date"`
	SupplierID         int64     `json:"supplier_id"`
	Rank               int       `json:"rank"`
	TotalScore         float64   `json:"total_score"`
	Grade              Grade     `json:"grade"`
	CompletedJobs      int       `json:"completed_jobs"`
	PromiseKeepingRate *float64  `json:"promise_keeping_rate"`
	CurrentLoad        int       `json:"current_load"`
	ConfigHash         string    `json:"config_hash"`
	CreatedAt          time.Time `json:"created_at"`
}
