package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: 외부 협력자 인터페이스 정의는 여기서만
// The scoring engine itself never calls these; the recommend service does.

// SupplierSource lists suppliers that could serve an item
type SupplierSource interface {
	ListCandidates(ctx context.Context, category string) ([]Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*Supplier, error)
}

// JobRecordSource supplies a supplier's historical job records (read-only)
type JobRecordSource interface {
	GetJobRecords(ctx context.Context, supplierID int64) ([]JobRecord, error)
}

// OpenJobCounter returns the supplier's open-job count at call time
type OpenJobCounter interface {
	CountOpenJobs(ctx context.Context, supplierID int64) (int, error)
}

// PriceSource returns competing prices for an item
type PriceSource interface {
	GetPriceSnapshot(ctx context.Context, item ItemContext) (*PriceSnapshot, error)
}

// ScoreSnapshotStore persists daily score snapshots
type ScoreSnapshotStore interface {
	SaveScoreSnapshots(ctx context.Context, date time.Time, rows []ScoreSnapshot) error
	GetLatestScoreSnapshots(ctx context.Context, limit int) ([]ScoreSnapshot, error)
}
