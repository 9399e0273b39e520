package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/printdesk/backend/internal/api"
	"github.com/wonny/printdesk/backend/internal/api/handlers"
	"github.com/wonny/printdesk/backend/internal/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                                        - Health check
  GET  /metrics                                       - Prometheus metrics
  GET  /api/quote-items/{itemId}/recommendations      - 공급사 추천 순위
  GET  /api/suppliers/{supplierId}/score              - 공급사 점수 상세
  GET  /api/scoring/config                            - 점수 계수 + 해시
  GET  /api/scoring/snapshots                         - 최근 점수 스냅샷

Example:
  go run ./cmd/printdesk api
  go run ./cmd/printdesk api --port 9000`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== PrintDesk API Server ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	recHandler := handlers.NewRecommendationHandler(a.service, a.cfg.Recommend.DefaultTopK, log)
	scoringHandler := handlers.NewScoringHandler(a.service, log)

	opts := api.RouterOptions{
		RateLimit: a.cfg.API.RateLimit,
		RateBurst: a.cfg.API.RateBurst,
	}
	if a.cfg.MetricsEnabled {
		opts.Metrics = metrics.Handler(a.registry)
	}

	router := api.NewRouter(recHandler, scoringHandler, opts, log)
	server := api.New(a.cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-quit:
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
