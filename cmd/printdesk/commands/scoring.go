package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/printdesk/backend/internal/scoringconfig"
)

// scoringCmd groups coefficient file commands
var scoringCmd = &cobra.Command{
	Use:   "scoring",
	Short: "점수 계수 설정",
	Long: `점수 계수 YAML 파일을 조회하거나 검증합니다.
DB 연결 없이 동작합니다.

Example:
  go run ./cmd/printdesk scoring show
  go run ./cmd/printdesk scoring validate --file config/scoring/supplier_scoring.yaml`,
}

var (
	scoringShowCmd = &cobra.Command{
		Use:   "show",
		Short: "적용될 계수, 해시, 점수 범위 출력",
		RunE:  runScoringShow,
	}

	scoringValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "계수 파일 검증",
		RunE:  runScoringValidate,
	}
)

var scoringValidateFile string

func init() {
	rootCmd.AddCommand(scoringCmd)
	scoringCmd.AddCommand(scoringShowCmd)
	scoringCmd.AddCommand(scoringValidateCmd)

	scoringValidateCmd.Flags().StringVar(&scoringValidateFile, "file", "", "검증할 YAML 파일")
	_ = scoringValidateCmd.MarkFlagRequired("file")
}

func runScoringShow(cmd *cobra.Command, args []string) error {
	path := scoringFile
	if path == "" {
		path = os.Getenv("SCORING_CONFIG_PATH")
	}

	cfg, err := scoringconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = "(built-in defaults)"
	}

	return printScoringConfig(path, cfg)
}

func runScoringValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := scoringconfig.Load(scoringValidateFile)
	if err != nil {
		fmt.Printf("❌ %s\n", err)
		return err
	}

	if err := printScoringConfig(scoringValidateFile, cfg); err != nil {
		return err
	}
	fmt.Println("✅ Valid")
	return nil
}

func printScoringConfig(source string, cfg *scoringconfig.Config) error {
	hash, err := scoringconfig.Hash(cfg)
	if err != nil {
		return err
	}
	lo, hi := cfg.Band()

	fmt.Printf("Source : %s\n", source)
	fmt.Printf("Config : %s v%s\n", cfg.Meta.ConfigID, cfg.Meta.Version)
	fmt.Printf("Hash   : %s\n", hash)
	fmt.Printf("Band   : [%.1f, %.1f]\n\n", lo, hi)

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Println(string(out))

	for _, w := range scoringconfig.Warn(cfg) {
		fmt.Printf("⚠️  %s: %s\n", w.Code, w.Message)
	}
	return nil
}
