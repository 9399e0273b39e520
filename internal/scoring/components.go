package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
)

// Components holds the base value and the five bounded deltas
type Components struct {
	Base     contracts.ScoreComponent
	Price    contracts.ScoreComponent
	Promise  contracts.ScoreComponent
	Courier  contracts.ScoreComponent
	Early    contracts.ScoreComponent
	Workload contracts.ScoreComponent
}

// Total returns base + all deltas, summed in a fixed order and rounded to 2 decimals
// so totals that display equal also compare equal.
func (c Components) Total() float64 {
	return round2(c.Base.Value + c.Price.Value + c.Promise.Value + c.Courier.Value + c.Early.Value + c.Workload.Value)
}

// Calculator maps aggregated metrics to named score deltas
// ⭐ SSOT: 점수 컴포넌트 계산은 여기서만
type Calculator struct {
	cfg   *scoringconfig.Config
	price PriceComparison
}

// NewCalculator creates a calculator with an injected price comparison strategy
func NewCalculator(cfg *scoringconfig.Config, price PriceComparison) *Calculator {
	return &Calculator{
		cfg:   cfg,
		price: price,
	}
}

// NewCalculatorFromConfig picks the price strategy named in cfg
func NewCalculatorFromConfig(cfg *scoringconfig.Config) (*Calculator, error) {
	price, err := NewPriceComparison(cfg.Price.Comparison)
	if err != nil {
		return nil, err
	}
	return NewCalculator(cfg, price), nil
}

// Compute returns every component for one supplier.
// For a supplier without completed jobs every history-dependent component is exactly 0.
func (c *Calculator) Compute(m contracts.AggregatedMetrics, item contracts.ItemContext) Components {
	return Components{
		Base: contracts.ScoreComponent{
			Value:       c.cfg.Base,
			Description: "neutral starting score",
		},
		Price:    c.priceComponent(m.SupplierID, item.Prices),
		Promise:  c.promiseComponent(m),
		Courier:  c.courierComponent(m),
		Early:    c.earlyComponent(m),
		Workload: c.workloadComponent(m),
	}
}

func (c *Calculator) priceComponent(supplierID int64, snapshot *contracts.PriceSnapshot) contracts.ScoreComponent {
	if c.price == nil {
		return contracts.ScoreComponent{Description: "price comparison disabled"}
	}

	pos, reference, ok := c.price.RelativePosition(supplierID, snapshot)
	if !ok {
		return contracts.ScoreComponent{Description: "no competing price data"}
	}

	value := round2(c.cfg.Price.Clamp.Apply(pos * c.cfg.Price.Weight))

	var desc string
	pct := math.Abs(pos) * 100
	switch {
	case pct < 0.05:
		desc = fmt.Sprintf("price at reference %.2f (%s)", reference, c.price.Name())
	case pos > 0:
		desc = fmt.Sprintf("%.1f%% below reference %.2f (%s)", pct, reference, c.price.Name())
	default:
		desc = fmt.Sprintf("%.1f%% above reference %.2f (%s)", pct, reference, c.price.Name())
	}

	return contracts.ScoreComponent{Value: value, Description: desc}
}

func (c *Calculator) promiseComponent(m contracts.AggregatedMetrics) contracts.ScoreComponent {
	if m.PromiseKeepingRate == nil {
		return contracts.ScoreComponent{Description: noRateDescription(m, "promise-keeping")}
	}

	rate := *m.PromiseKeepingRate
	ref := c.cfg.Promise.ReferenceRate
	value := round2(c.cfg.Promise.Clamp.Apply((rate - ref) * c.cfg.Promise.Weight))

	return contracts.ScoreComponent{
		Value: value,
		Description: fmt.Sprintf("%.0f%% promise-keeping over %d jobs (reference %.0f%%)",
			rate*100, m.TimedJobs, ref*100),
	}
}

func (c *Calculator) courierComponent(m contracts.AggregatedMetrics) contracts.ScoreComponent {
	if m.IsNewSupplier() {
		return contracts.ScoreComponent{Description: "no completed jobs yet"}
	}
	if m.CourierConfirmationRate == nil {
		return contracts.ScoreComponent{Description: "no courier checks recorded"}
	}

	rate := *m.CourierConfirmationRate
	ref := c.cfg.Courier.ReferenceRate
	value := round2(c.cfg.Courier.Clamp.Apply((rate - ref) * c.cfg.Courier.Weight))

	return contracts.ScoreComponent{
		Value: value,
		Description: fmt.Sprintf("%.0f%% courier-confirmed over %d checked jobs (reference %.0f%%)",
			rate*100, m.CourierChecks, ref*100),
	}
}

func (c *Calculator) earlyComponent(m contracts.AggregatedMetrics) contracts.ScoreComponent {
	if m.EarlyDeliveryRate == nil {
		return contracts.ScoreComponent{Description: noRateDescription(m, "early-delivery")}
	}

	rate := *m.EarlyDeliveryRate
	value := round2(c.cfg.Early.Clamp.Apply(rate * c.cfg.Early.Weight))

	return contracts.ScoreComponent{
		Value:       value,
		Description: fmt.Sprintf("%.0f%% delivered early over %d jobs", rate*100, m.TimedJobs),
	}
}

func (c *Calculator) workloadComponent(m contracts.AggregatedMetrics) contracts.ScoreComponent {
	w := c.cfg.Workload

	// 신규 공급사는 이력 기반 점수 0 (base + price만)
	if m.IsNewSupplier() {
		return contracts.ScoreComponent{
			Description: fmt.Sprintf("new supplier, workload not scored (%d open jobs)", m.CurrentLoad),
		}
	}

	over := m.CurrentLoad - w.FreeJobs
	if over <= 0 {
		return contracts.ScoreComponent{
			Description: fmt.Sprintf("%d open jobs within free allowance of %d", m.CurrentLoad, w.FreeJobs),
		}
	}

	raw := -float64(over) * w.PenaltyPerJob
	value := round2(w.Clamp.Apply(raw))

	desc := fmt.Sprintf("%d open jobs, %d over allowance of %d", m.CurrentLoad, over, w.FreeJobs)
	if value != round2(raw) {
		desc += fmt.Sprintf(" (capped at %.0f)", w.Clamp.Min)
	}

	return contracts.ScoreComponent{Value: value, Description: desc}
}

func noRateDescription(m contracts.AggregatedMetrics, what string) string {
	if m.IsNewSupplier() {
		return "no completed jobs yet"
	}
	return fmt.Sprintf("no valid delivery durations for %s over %d jobs (%d anomalous)",
		what, m.CompletedJobs, m.AnomalousJobs)
}

// round2 rounds to two decimals; monotone, so ordering between inputs is preserved
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // -0 방지
	}
	return r
}
