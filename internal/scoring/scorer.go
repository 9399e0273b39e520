package scoring

import (
	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
)

// Scorer sums components into a ScoreBreakdown
// Pure: identical supplier/metrics/item always give an identical breakdown
type Scorer struct {
	calc   *Calculator
	grades scoringconfig.Grades
}

// NewScorer creates a scorer
func NewScorer(calc *Calculator, grades scoringconfig.Grades) *Scorer {
	return &Scorer{
		calc:   calc,
		grades: grades,
	}
}

// Score computes the breakdown for one supplier
func (s *Scorer) Score(supplier contracts.Supplier, m contracts.AggregatedMetrics, item contracts.ItemContext) contracts.ScoreBreakdown {
	m.SupplierID = supplier.ID
	comps := s.calc.Compute(m, item)
	total := comps.Total()

	return contracts.ScoreBreakdown{
		SupplierID:    supplier.ID,
		Base:          comps.Base,
		Price:         comps.Price,
		Promise:       comps.Promise,
		Courier:       comps.Courier,
		Early:         comps.Early,
		Workload:      comps.Workload,
		TotalScore:    total,
		IsNewSupplier: m.IsNewSupplier(),
		Grade:         GradeFor(total, s.grades),
	}
}

// GradeFor maps a total score to its display grade
func GradeFor(total float64, g scoringconfig.Grades) contracts.Grade {
	switch {
	case total >= g.Excellent:
		return contracts.GradeExcellent
	case total >= g.Good:
		return contracts.GradeGood
	case total >= g.Fair:
		return contracts.GradeFair
	default:
		return contracts.GradePoor
	}
}
