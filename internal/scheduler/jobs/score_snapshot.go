package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/printdesk/backend/internal/recommend"
	"github.com/wonny/printdesk/backend/pkg/logger"
)

// DefaultSnapshotSchedule runs the snapshot nightly at 02:00
const DefaultSnapshotSchedule = "0 0 2 * * *"

// Snapshotter persists one day's ranked scores
type Snapshotter interface {
	Snapshot(ctx context.Context) (*recommend.SnapshotResult, error)
}

// ScoreSnapshotJob stores the daily supplier score ranking
// ⭐ SSOT: 점수 스냅샷 스케줄은 이 Job에서만
type ScoreSnapshotJob struct {
	svc      Snapshotter
	schedule string
	logger   *logger.Logger
}

// NewScoreSnapshotJob creates the job; an empty schedule uses DefaultSnapshotSchedule
func NewScoreSnapshotJob(svc Snapshotter, schedule string, log *logger.Logger) *ScoreSnapshotJob {
	if schedule == "" {
		schedule = DefaultSnapshotSchedule
	}
	return &ScoreSnapshotJob{
		svc:      svc,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScoreSnapshotJob) Name() string {
	return "score_snapshot"
}

// Schedule returns the cron schedule
func (j *ScoreSnapshotJob) Schedule() string {
	return j.schedule
}

// Run executes the snapshot
func (j *ScoreSnapshotJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled score snapshot")

	// 일부 공급사 누락도 에러 → 스케줄러 재시도, 기존 스냅샷은 유지
	result, err := j.svc.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("score snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"batch_id": result.BatchID,
		"rows":     len(result.Rows),
	}).Debug("Score snapshot job finished")

	return nil
}
