package scoring

import (
	"testing"
	"time"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

// doneJob is a delivered job that took `days` against `promised`
func doneJob(supplierID int64, promised, days int, courierOK *bool) contracts.JobRecord {
	accepted := t0
	ready := accepted.Add(time.Duration(days) * 24 * time.Hour)
	return contracts.JobRecord{
		SupplierID:      supplierID,
		State:           contracts.JobDelivered,
		PromisedDays:    promised,
		CourierVerified: courierOK,
		CreatedAt:       accepted,
		AcceptedAt:      &accepted,
		ReadyAt:         &ready,
	}
}

func openJob(supplierID int64, state contracts.JobState) contracts.JobRecord {
	return contracts.JobRecord{
		SupplierID:   supplierID,
		State:        state,
		PromisedDays: 5,
		CreatedAt:    t0,
	}
}

// perfectHistory: 20 delivered jobs, all on time, all courier-confirmed, 6 early (30%)
func perfectHistory(supplierID int64) []contracts.JobRecord {
	jobs := make([]contracts.JobRecord, 0, 20)
	for i := 0; i < 20; i++ {
		days := 5
		if i < 6 {
			days = 3
		}
		jobs = append(jobs, doneJob(supplierID, 5, days, boolPtr(true)))
	}
	return jobs
}

func withOpenJobs(jobs []contracts.JobRecord, supplierID int64, n int) []contracts.JobRecord {
	out := append([]contracts.JobRecord(nil), jobs...)
	for i := 0; i < n; i++ {
		out = append(out, openJob(supplierID, contracts.JobInProduction))
	}
	return out
}

func activeSupplier(id int64) contracts.Supplier {
	return contracts.Supplier{
		ID:          id,
		Name:        "supplier",
		CompanyName: "Print Co",
		Status:      contracts.SupplierActive,
	}
}

// averagePriced puts every listed supplier exactly at the category average
func averagePriced(avg float64, ids ...int64) *contracts.PriceSnapshot {
	prices := make(map[int64]float64, len(ids))
	for _, id := range ids {
		prices[id] = avg
	}
	return &contracts.PriceSnapshot{
		ProductKey:      "bc-90x50-matte",
		Quantity:        500,
		Prices:          prices,
		CategoryAverage: floatPtr(avg),
	}
}

func newTestScorer(t testing.TB) *Scorer {
	t.Helper()
	cfg := scoringconfig.Default()
	calc, err := NewCalculatorFromConfig(cfg)
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	return NewScorer(calc, cfg.Grades)
}
