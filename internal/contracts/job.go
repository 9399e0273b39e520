package contracts

import (
	"math"
	"time"
)

// JobState is the lifecycle state of a supplier assignment
type JobState string

const (
	JobPending      JobState = "pending"
	JobInProgress   JobState = "in_progress"
	JobInProduction JobState = "in_production"
	JobReady        JobState = "ready"
	JobPickedUp     JobState = "picked_up"
	JobDelivered    JobState = "delivered"
	JobCancelled    JobState = "cancelled"
)

// IsOpen reports whether the state counts toward a supplier's current load
func (s JobState) IsOpen() bool {
	switch s {
	case JobPending, JobInProgress, JobInProduction:
		return true
	default:
		return false
	}
}

// IsCompleted reports whether the job reached the ready/delivered terminal side
func (s JobState) IsCompleted() bool {
	switch s {
	case JobReady, JobPickedUp, JobDelivered:
		return true
	default:
		return false
	}
}

// JobRecord is one historical assignment of a supplier to a quote item
// Immutable once delivered, except Rating which staff may backfill
type JobRecord struct {
	ID              int64    `json:"id"`
	SupplierID      int64    `json:"supplier_id"`
	QuoteItemID     int64    `json:"quote_item_id"`
	Category        string   `json:"category,omitempty"`
	State           JobState `json:"state"`
	PromisedDays    int      `json:"promised_days"`
	CourierVerified *bool    `json:"courier_verified,omitempty"` // nil = 아직 확인 안 됨
	Rating          *int     `json:"rating,omitempty"`           // 1~5
	Cancelled       bool     `json:"cancelled"`
	CancelReason    string   `json:"cancel_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// IsCompleted reports whether the job counts toward completed jobs
func (j *JobRecord) IsCompleted() bool {
	return !j.Cancelled && j.State.IsCompleted()
}

// IsOpen reports whether the job counts toward current load
func (j *JobRecord) IsOpen() bool {
	return !j.Cancelled && j.State.IsOpen()
}

// ActualDays returns ready - accepted in whole days (floored).
// ok is false while the job has no ready or accepted timestamp.
// A negative value means the timestamps are inconsistent.
func (j *JobRecord) ActualDays() (days int, ok bool) {
	if j.AcceptedAt == nil || j.ReadyAt == nil {
		return 0, false
	}
	d := j.ReadyAt.Sub(*j.AcceptedAt)
	return int(math.Floor(d.Hours() / 24)), true
}
