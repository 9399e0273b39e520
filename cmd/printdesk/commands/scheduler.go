package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/printdesk/backend/internal/scheduler"
	"github.com/wonny/printdesk/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- score_snapshot: 매일 02:00 (SNAPSHOT_SCHEDULE, 공급사 점수 스냅샷 저장)

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/printdesk scheduler
  go run ./cmd/printdesk scheduler --run-now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "시작 전에 스냅샷 즉시 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== PrintDesk Scheduler ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log)

	snapshotJob := jobs.NewScoreSnapshotJob(a.service, a.cfg.SnapshotSchedule, a.log)
	if err := sched.AddJob(snapshotJob); err != nil {
		return fmt.Errorf("add job: %w", err)
	}

	if schedulerRunNow {
		result, err := sched.RunJob(cmd.Context(), snapshotJob.Name())
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s completed in %s\n", result.JobName, result.Duration)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for name, st := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", name, st.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}
