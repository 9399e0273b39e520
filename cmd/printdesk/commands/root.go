package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	scoringFile string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "printdesk",
	Short: "PrintDesk - 인쇄 공급사 점수/추천 엔진",
	Long: `PrintDesk Supplier Scoring CLI

공급사 이력(약속 준수, 택배 확인, 조기 출고, 작업량)과 가격으로
견적 항목별 공급사 추천 순위를 계산합니다.

Usage:
  go run ./cmd/printdesk [command]

Examples:
  go run ./cmd/printdesk api
  go run ./cmd/printdesk recommend --item 42 --category business_cards
  go run ./cmd/printdesk scoring validate --file config/scoring/supplier_scoring.yaml
  go run ./cmd/printdesk scheduler --run-now
  go run ./cmd/printdesk test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&scoringFile, "scoring-config", "", "scoring coefficient YAML (default: SCORING_CONFIG_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
