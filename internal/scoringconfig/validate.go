package scoringconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Base ===
	if !isFinite(cfg.Base) || cfg.Base <= 0 {
		return ValidationError{"base", "must be a finite value > 0"}
	}

	// === Price ===
	if cfg.Price.Comparison != ComparisonExactMatch && cfg.Price.Comparison != ComparisonCategoryAverage {
		return ValidationError{"price.comparison", fmt.Sprintf("must be %s or %s", ComparisonExactMatch, ComparisonCategoryAverage)}
	}
	if err := validateWeight(cfg.Price.Weight, "price.weight"); err != nil {
		return err
	}
	if err := validateClamp(cfg.Price.Clamp, "price.clamp"); err != nil {
		return err
	}

	// === Promise / Courier ===
	rates := []struct {
		field string
		rate  Rate
	}{
		{"promise", cfg.Promise},
		{"courier", cfg.Courier},
	}
	for _, fr := range rates {
		field, r := fr.field, fr.rate
		if r.ReferenceRate < 0 || r.ReferenceRate > 1 {
			return ValidationError{field + ".reference_rate", "must be in range [0, 1]"}
		}
		if err := validateWeight(r.Weight, field+".weight"); err != nil {
			return err
		}
		if err := validateClamp(r.Clamp, field+".clamp"); err != nil {
			return err
		}
	}

	// === Early ===
	if err := validateWeight(cfg.Early.Weight, "early.weight"); err != nil {
		return err
	}
	if err := validateClamp(cfg.Early.Clamp, "early.clamp"); err != nil {
		return err
	}
	if cfg.Early.Clamp.Min < 0 {
		return ValidationError{"early.clamp.min", "must be >= 0 (early delivery is a bonus only)"}
	}

	// === Workload ===
	if cfg.Workload.FreeJobs < 0 {
		return ValidationError{"workload.free_jobs", "must be >= 0"}
	}
	if err := validateWeight(cfg.Workload.PenaltyPerJob, "workload.penalty_per_job"); err != nil {
		return err
	}
	if err := validateClamp(cfg.Workload.Clamp, "workload.clamp"); err != nil {
		return err
	}
	if cfg.Workload.Clamp.Max > 0 {
		return ValidationError{"workload.clamp.max", "must be <= 0 (workload is a penalty only)"}
	}

	// === Grades ===
	g := cfg.Grades
	if !(g.Excellent > g.Good && g.Good > g.Fair) {
		return ValidationError{"grades", "must satisfy excellent > good > fair"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	lo, hi := cfg.Band()

	// 최고 점수로도 excellent 도달 불가
	if hi < cfg.Grades.Excellent {
		warnings = append(warnings, Warning{
			Code:    "EXCELLENT_UNREACHABLE",
			Message: fmt.Sprintf("max total %.1f is below the excellent threshold %.1f", hi, cfg.Grades.Excellent),
		})
	}

	// 음수 총점 허용
	if lo < 0 {
		warnings = append(warnings, Warning{
			Code:    "NEGATIVE_FLOOR",
			Message: fmt.Sprintf("min total %.1f is negative", lo),
		})
	}

	// 단일 컴포넌트가 base의 절반 이상을 흔들 수 있음
	clamps := []struct {
		name  string
		clamp Clamp
	}{
		{"price", cfg.Price.Clamp},
		{"promise", cfg.Promise.Clamp},
		{"courier", cfg.Courier.Clamp},
		{"early", cfg.Early.Clamp},
		{"workload", cfg.Workload.Clamp},
	}
	for _, nc := range clamps {
		name, c := nc.name, nc.clamp
		swing := math.Max(math.Abs(c.Min), math.Abs(c.Max))
		if swing > cfg.Base/2 {
			warnings = append(warnings, Warning{
				Code:    "DOMINANT_COMPONENT",
				Message: fmt.Sprintf("%s can move the total by %.1f, more than half of base", name, swing),
			})
		}
	}

	return warnings
}

// === Helper Functions ===

func validateClamp(c Clamp, field string) error {
	if !isFinite(c.Min) || !isFinite(c.Max) {
		return ValidationError{field, "min and max must be finite"}
	}
	if c.Min > c.Max {
		return ValidationError{field, "min must be <= max"}
	}
	return nil
}

func validateWeight(w float64, field string) error {
	if !isFinite(w) || w < 0 {
		return ValidationError{field, "must be a finite value >= 0"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
