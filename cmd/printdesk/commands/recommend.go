package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/printdesk/backend/internal/contracts"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "견적 항목별 공급사 추천",
	Long: `견적 항목 하나에 대해 공급사 추천 순위를 계산해 출력합니다.

Example:
  go run ./cmd/printdesk recommend --item 42 --category business_cards
  go run ./cmd/printdesk recommend --item 42 --product 90x50-snow250 --quantity 200 --top 3
  go run ./cmd/printdesk recommend --item 42 --category flyers --scope-category --json`,
	RunE: runRecommend,
}

var (
	recItemID        int64
	recCategory      string
	recProduct       string
	recQuantity      int
	recTopK          int
	recScopeCategory bool
	recJSON          bool
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().Int64Var(&recItemID, "item", 0, "견적 항목 ID")
	recommendCmd.Flags().StringVar(&recCategory, "category", "", "상품 카테고리")
	recommendCmd.Flags().StringVar(&recProduct, "product", "", "상품 키 (규격/용지/후가공)")
	recommendCmd.Flags().IntVar(&recQuantity, "quantity", 0, "수량")
	recommendCmd.Flags().IntVar(&recTopK, "top", -1, "상위 N개 (0 = 전체, default: RECOMMEND_DEFAULT_TOP_K)")
	recommendCmd.Flags().BoolVar(&recScopeCategory, "scope-category", false, "같은 카테고리 이력만 반영")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "JSON 출력")
	_ = recommendCmd.MarkFlagRequired("item")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	topK := recTopK
	if topK < 0 {
		topK = a.cfg.Recommend.DefaultTopK
	}

	item := contracts.ItemContext{
		ItemID:          recItemID,
		Category:        recCategory,
		ProductKey:      recProduct,
		Quantity:        recQuantity,
		ScopeToCategory: recScopeCategory,
	}

	rec, err := a.service.Recommend(cmd.Context(), item, topK)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	if recJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	printRecommendation(rec)
	return nil
}

func printRecommendation(rec *contracts.Recommendation) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Recommendation for item #%d\n", rec.ItemID)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Run ID    : %s\n", rec.RunID)
	fmt.Printf("  Status    : %s\n", rec.Status)
	fmt.Printf("  Config    : %s\n", shortHash(rec.ConfigHash))
	fmt.Println("───────────────────────────────────────────────────────────")

	if len(rec.Entries) == 0 {
		fmt.Println("  (no suppliers ranked)")
	}

	for _, e := range rec.Entries {
		s := e.Scores
		fmt.Printf("  #%d  %-24s %7.2f  [%s]%s\n", e.Rank, e.CompanyName, s.TotalScore, s.Grade, newBadge(s.IsNewSupplier))
		fmt.Printf("      price %+6.2f  promise %+6.2f  courier %+6.2f  early %+6.2f  workload %+6.2f\n",
			s.Price.Value, s.Promise.Value, s.Courier.Value, s.Early.Value, s.Workload.Value)
		fmt.Printf("      jobs %d  on-time %s  load %d\n",
			e.Metrics.CompletedJobs, pctString(e.Metrics.PromiseKeepingPct), e.Metrics.CurrentLoad)
	}

	if len(rec.Omitted) > 0 {
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Println("  Omitted:")
		for _, o := range rec.Omitted {
			fmt.Printf("    supplier %d: %s\n", o.SupplierID, o.Reason)
		}
	}
	for _, w := range rec.Warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

func newBadge(isNew bool) string {
	if isNew {
		return " NEW"
	}
	return ""
}

func pctString(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
