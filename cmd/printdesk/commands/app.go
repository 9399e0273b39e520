package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wonny/printdesk/backend/internal/external/catalog"
	"github.com/wonny/printdesk/backend/internal/metrics"
	"github.com/wonny/printdesk/backend/internal/recommend"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
	"github.com/wonny/printdesk/backend/internal/supplier"
	"github.com/wonny/printdesk/backend/pkg/config"
	"github.com/wonny/printdesk/backend/pkg/database"
	"github.com/wonny/printdesk/backend/pkg/httputil"
	"github.com/wonny/printdesk/backend/pkg/logger"
	"github.com/wonny/printdesk/backend/pkg/redis"
)

// app holds everything a command needs once config is loaded
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	repo     *supplier.Repository
	registry *prometheus.Registry
	service  *recommend.Service
}

// loadConfig loads env config and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if scoringFile != "" {
		cfg.Scoring.ConfigPath = scoringFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires database, cache, catalog client and the recommendation service
// ⭐ SSOT: 의존성 조립은 여기서만
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	scoringCfg, err := scoringconfig.LoadOrDefault(cfg.Scoring.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	for _, w := range scoringconfig.Warn(scoringCfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    rdb,
		repo:     supplier.NewRepository(db.Pool),
		registry: prometheus.NewRegistry(),
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(a.registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	deps := recommend.Deps{
		Suppliers: a.repo,
		Jobs:      a.repo,
		OpenJobs:  a.repo,
		Snapshots: a.repo,
		Metrics:   collector,
	}

	if rdb.Enabled() {
		deps.Cache = redis.NewCache(rdb, "printdesk")
		log.Info("Recommendation cache enabled (redis)")
	}

	if cfg.Catalog.BaseURL != "" {
		httpClient := httputil.New(log, cfg.Catalog.Timeout)
		if rdb.Enabled() {
			// 여러 인스턴스가 카탈로그 API 한도를 공유
			httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(rdb, "printdesk"), redis.CatalogRateLimit)
		}
		deps.Prices = catalog.NewClient(httpClient, log, cfg.Catalog.BaseURL)
	} else {
		log.Warn("CATALOG_BASE_URL not set, price component disabled")
	}

	a.service, err = recommend.NewService(deps, scoringCfg, recommend.Options{
		CacheTTL:         cfg.Recommend.CacheTTL,
		FetchConcurrency: cfg.Recommend.FetchConcurrency,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"config_id":   scoringCfg.Meta.ConfigID,
		"config_hash": a.service.ConfigHash(),
	}).Info("Scoring engine ready")

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}
