package scoringconfig

import "math"

// Config는 공급사 점수 산정 계수 전체 설정
// SSOT: config/scoring/supplier_scoring.yaml
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Base     float64  `yaml:"base" json:"base"`
	Price    Price    `yaml:"price" json:"price"`
	Promise  Rate     `yaml:"promise" json:"promise"`
	Courier  Rate     `yaml:"courier" json:"courier"`
	Early    Early    `yaml:"early" json:"early"`
	Workload Workload `yaml:"workload" json:"workload"`
	Grades   Grades   `yaml:"grades" json:"grades"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Clamp bounds one component's delta
type Clamp struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Apply clamps v into [Min, Max]. NaN maps to 0.
func (c Clamp) Apply(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < c.Min {
		return c.Min
	}
	if v > c.Max {
		return c.Max
	}
	return v
}

// Price maps a relative price position to a delta
type Price struct {
	Comparison string  `yaml:"comparison" json:"comparison"` // exact_match | category_average
	Weight     float64 `yaml:"weight" json:"weight"`         // points per 100% deviation from the reference price
	Clamp      Clamp   `yaml:"clamp" json:"clamp"`
}

// Rate is a delta proportional to (rate - reference)
type Rate struct {
	ReferenceRate float64 `yaml:"reference_rate" json:"reference_rate"`
	Weight        float64 `yaml:"weight" json:"weight"`
	Clamp         Clamp   `yaml:"clamp" json:"clamp"`
}

// Early rewards early delivery; never negative
type Early struct {
	Weight float64 `yaml:"weight" json:"weight"`
	Clamp  Clamp   `yaml:"clamp" json:"clamp"`
}

// Workload penalises open jobs beyond a free allowance; never positive
type Workload struct {
	FreeJobs      int     `yaml:"free_jobs" json:"free_jobs"`
	PenaltyPerJob float64 `yaml:"penalty_per_job" json:"penalty_per_job"`
	Clamp         Clamp   `yaml:"clamp" json:"clamp"`
}

// Grades are the total-score thresholds shown on the assignment screen
type Grades struct {
	Excellent float64 `yaml:"excellent" json:"excellent"`
	Good      float64 `yaml:"good" json:"good"`
	Fair      float64 `yaml:"fair" json:"fair"`
}

// Band returns the lowest and highest total score the clamps allow
func (c *Config) Band() (lo, hi float64) {
	lo = c.Base + c.Price.Clamp.Min + c.Promise.Clamp.Min + c.Courier.Clamp.Min +
		c.Early.Clamp.Min + c.Workload.Clamp.Min
	hi = c.Base + c.Price.Clamp.Max + c.Promise.Clamp.Max + c.Courier.Clamp.Max +
		c.Early.Clamp.Max + c.Workload.Clamp.Max
	return lo, hi
}

const (
	ComparisonExactMatch      = "exact_match"
	ComparisonCategoryAverage = "category_average"
)

// Default returns the coefficients used when no file is configured.
// Perfect history (100% promise, 100% courier, 30% early) lands at 114,
// a brand-new supplier at average price at exactly 70.
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "supplier_scoring",
			Version:  "1.0.0",
		},
		Base: 70,
		Price: Price{
			Comparison: ComparisonCategoryAverage,
			Weight:     50, // 10% 저렴 → +5
			Clamp:      Clamp{Min: -10, Max: 10},
		},
		Promise: Rate{
			ReferenceRate: 0.8,
			Weight:        100, // 10%p → 10점
			Clamp:         Clamp{Min: -20, Max: 20},
		},
		Courier: Rate{
			ReferenceRate: 0.8,
			Weight:        75,
			Clamp:         Clamp{Min: -15, Max: 15},
		},
		Early: Early{
			Weight: 30,
			Clamp:  Clamp{Min: 0, Max: 10},
		},
		Workload: Workload{
			FreeJobs:      2,
			PenaltyPerJob: 2,
			Clamp:         Clamp{Min: -15, Max: 0},
		},
		Grades: Grades{
			Excellent: 110,
			Good:      100,
			Fair:      90,
		},
	}
}
