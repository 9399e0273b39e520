package scoring

import (
	"github.com/wonny/printdesk/backend/internal/contracts"
)

// Aggregate reduces one supplier's job records into AggregatedMetrics.
// The caller supplies only that supplier's records; nothing is filtered by id here.
//
// Rules:
//   - completed: not cancelled and state is ready/picked_up/delivered
//   - promise/early: over completed jobs with a valid (non-negative) duration
//   - courier: over completed jobs whose courier verdict is set
//   - current load: pending/in_progress/in_production and not cancelled
//
// A completed job with a negative duration still counts as completed but is
// left out of the promise and early rates.
func Aggregate(supplierID int64, jobs []contracts.JobRecord) contracts.AggregatedMetrics {
	m := contracts.AggregatedMetrics{SupplierID: supplierID}

	var kept, early, confirmed int
	var ratingSum, ratingCount int

	for i := range jobs {
		job := &jobs[i]

		if job.Cancelled || job.State == contracts.JobCancelled {
			m.CancelledJobs++
			continue
		}

		if job.IsOpen() {
			m.CurrentLoad++
			continue
		}

		if !job.IsCompleted() {
			continue
		}
		m.CompletedJobs++

		if days, ok := job.ActualDays(); ok {
			if days < 0 {
				m.AnomalousJobs++
			} else {
				m.TimedJobs++
				if days <= job.PromisedDays {
					kept++
				}
				if days < job.PromisedDays {
					early++
				}
			}
		}

		if job.CourierVerified != nil {
			m.CourierChecks++
			if *job.CourierVerified {
				confirmed++
			}
		}

		if job.Rating != nil && *job.Rating >= 1 && *job.Rating <= 5 {
			ratingSum += *job.Rating
			ratingCount++
		}
	}

	m.PromiseKeepingRate = ratio(kept, m.TimedJobs)
	m.EarlyDeliveryRate = ratio(early, m.TimedJobs)
	m.CourierConfirmationRate = ratio(confirmed, m.CourierChecks)
	m.AverageRating = ratio(ratingSum, ratingCount)

	return m
}

// CurrentLoad counts open, non-cancelled jobs
func CurrentLoad(jobs []contracts.JobRecord) int {
	load := 0
	for i := range jobs {
		if jobs[i].IsOpen() {
			load++
		}
	}
	return load
}

// ScopeJobs keeps only records from the item's category when the caller asked for it
func ScopeJobs(jobs []contracts.JobRecord, item contracts.ItemContext) []contracts.JobRecord {
	if !item.ScopeToCategory || item.Category == "" {
		return jobs
	}

	scoped := make([]contracts.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if job.Category == item.Category {
			scoped = append(scoped, job)
		}
	}
	return scoped
}

// ratio returns num/den, or nil when den is zero
func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	r := float64(num) / float64(den)
	return &r
}
