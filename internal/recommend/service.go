package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/metrics"
	"github.com/wonny/printdesk/backend/internal/scoring"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
	"github.com/wonny/printdesk/backend/pkg/logger"
	"github.com/wonny/printdesk/backend/pkg/redis"
)

// ErrSupplierPoolUnavailable means the candidate list itself could not be read.
// Per-supplier failures never produce this; they become omissions.
var ErrSupplierPoolUnavailable = errors.New("supplier pool unavailable")

// ErrSnapshotIncomplete means some suppliers could not be read, so the day's rows were left untouched
var ErrSnapshotIncomplete = errors.New("snapshot incomplete")

// ErrSnapshotStoreMissing is returned by snapshot operations when no store is wired
var ErrSnapshotStoreMissing = errors.New("snapshot store not configured")

// Cache is the subset of the Redis cache the service uses
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Deps are the service's collaborators. Only Suppliers and Jobs are required.
type Deps struct {
	Suppliers contracts.SupplierSource
	Jobs      contracts.JobRecordSource
	OpenJobs  contracts.OpenJobCounter     // nil = count open jobs from history
	Prices    contracts.PriceSource        // nil = no price component
	Snapshots contracts.ScoreSnapshotStore // nil = Snapshot unavailable
	Cache     Cache                        // nil = no caching
	Metrics   *metrics.Collector
}

// Options tune the service
type Options struct {
	CacheTTL         time.Duration
	FetchConcurrency int
}

// Service builds supplier recommendations for quote items
// ⭐ SSOT: 추천 흐름(조회 → 점수 → 정렬)은 여기서만 조립
type Service struct {
	deps       Deps
	opts       Options
	scoringCfg *scoringconfig.Config
	configHash string
	scorer     *scoring.Scorer
	ranker     *scoring.Ranker
	logger     *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the scoring engine from cfg and validates the collaborators
func NewService(deps Deps, cfg *scoringconfig.Config, opts Options, log *logger.Logger) (*Service, error) {
	if deps.Suppliers == nil || deps.Jobs == nil {
		return nil, fmt.Errorf("recommend: supplier and job sources are required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.FetchConcurrency < 1 {
		opts.FetchConcurrency = 1
	}

	calc, err := scoring.NewCalculatorFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	hash, err := scoringconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("recommend: hash scoring config: %w", err)
	}

	scorer := scoring.NewScorer(calc, cfg.Grades)

	return &Service{
		deps:       deps,
		opts:       opts,
		scoringCfg: cfg,
		configHash: hash,
		scorer:     scorer,
		ranker:     scoring.NewRanker(scorer, log),
		logger:     log,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// ConfigHash returns the hash stamped on every result
func (s *Service) ConfigHash() string {
	return s.configHash
}

// ScoringConfig returns the active coefficients
func (s *Service) ScoringConfig() *scoringconfig.Config {
	return s.scoringCfg
}

// Recommend ranks the eligible suppliers for one quote item.
// topK <= 0 returns every eligible supplier.
func (s *Service) Recommend(ctx context.Context, item contracts.ItemContext, topK int) (*contracts.Recommendation, error) {
	start := s.now()
	log := s.logger.WithItem(item.ItemID)

	// 호출자가 가격을 직접 준 경우 캐시 키로 구분할 수 없음
	cacheable := s.deps.Cache != nil && s.opts.CacheTTL > 0 && item.Prices == nil
	var cacheKey string
	if cacheable {
		cacheKey = redis.RecommendationKey(s.configHash, item.ItemID, item.Category, item.ProductKey,
			item.Quantity, item.ScopeToCategory, topK)

		var cached contracts.Recommendation
		found, err := s.deps.Cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			log.WithError(err).Warn("Recommendation cache read failed")
		}
		s.deps.Metrics.RecordCache(found)
		if found {
			return &cached, nil
		}
	}

	suppliers, err := s.deps.Suppliers.ListCandidates(ctx, item.Category)
	if err != nil {
		log.WithError(err).Error("Failed to list candidate suppliers")
		return nil, fmt.Errorf("%w: %v", ErrSupplierPoolUnavailable, err)
	}

	var warnings []string
	fetched, err := s.gather(ctx, suppliers, item)
	if err != nil {
		return nil, err
	}
	if fetched.priceErr != nil {
		log.WithError(fetched.priceErr).Warn("Price data unavailable, scoring without price component")
		warnings = append(warnings, "price data unavailable: "+fetched.priceErr.Error())
	}
	if item.Prices == nil {
		item.Prices = fetched.prices
	}

	ranking := s.ranker.Recommend(fetched.candidates, item, topK)

	rec := &contracts.Recommendation{
		RunID:       s.newID(),
		ItemID:      item.ItemID,
		Category:    item.Category,
		Status:      ranking.Status(),
		Entries:     ranking.Entries,
		Omitted:     ranking.Omitted,
		Warnings:    warnings,
		ConfigHash:  s.configHash,
		GeneratedAt: s.now(),
	}

	for _, o := range rec.Omitted {
		log.WithSupplier(o.SupplierID).WithField("reason", o.Reason).Warn("Supplier omitted from recommendation")
	}

	elapsed := s.now().Sub(start)
	s.deps.Metrics.RecordRecommendation(rec.Status, len(rec.Omitted), elapsed)

	log.WithFields(map[string]interface{}{
		"run_id":     rec.RunID,
		"status":     rec.Status,
		"candidates": len(suppliers),
		"ranked":     len(rec.Entries),
		"omitted":    len(rec.Omitted),
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("Recommendation generated")

	// 일부 누락/가격 실패 결과는 캐시하지 않음 (일시적 장애)
	if cacheable && len(rec.Omitted) == 0 && fetched.priceErr == nil {
		if err := s.deps.Cache.Set(ctx, cacheKey, rec, s.opts.CacheTTL); err != nil {
			log.WithError(err).Warn("Recommendation cache write failed")
		}
	}

	return rec, nil
}

type gathered struct {
	candidates []scoring.Candidate
	prices     *contracts.PriceSnapshot
	priceErr   error
}

// gather fetches history for every active supplier and the item's prices concurrently.
// Per-supplier errors are carried on the candidate; only ctx cancellation fails the call.
func (s *Service) gather(ctx context.Context, suppliers []contracts.Supplier, item contracts.ItemContext) (*gathered, error) {
	out := &gathered{candidates: make([]scoring.Candidate, len(suppliers))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FetchConcurrency + 1) // +1: price fetch

	if item.Prices == nil && s.deps.Prices != nil {
		g.Go(func() error {
			out.prices, out.priceErr = s.deps.Prices.GetPriceSnapshot(gctx, item)
			return nil
		})
	}

	for i := range suppliers {
		out.candidates[i].Supplier = suppliers[i]
		if !suppliers[i].Status.IsEligible() {
			continue
		}

		i := i
		g.Go(func() error {
			out.candidates[i] = s.fetchCandidate(gctx, suppliers[i])
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) fetchCandidate(ctx context.Context, supplier contracts.Supplier) scoring.Candidate {
	c := scoring.Candidate{Supplier: supplier}

	jobs, err := s.deps.Jobs.GetJobRecords(ctx, supplier.ID)
	if err != nil {
		c.Err = fmt.Errorf("job history unavailable: %w", err)
		return c
	}
	c.Jobs = jobs

	if s.deps.OpenJobs != nil {
		open, err := s.deps.OpenJobs.CountOpenJobs(ctx, supplier.ID)
		if err != nil {
			c.Err = fmt.Errorf("open job count unavailable: %w", err)
			return c
		}
		c.OpenJobs = &open
	}

	return c
}

// SupplierScore is the single-supplier breakdown shown on the supplier page
type SupplierScore struct {
	Supplier   contracts.Supplier          `json:"supplier"`
	Eligible   bool                        `json:"eligible"`
	Scores     contracts.ScoreBreakdown    `json:"scores"`
	Metrics    contracts.AggregatedMetrics `json:"metrics"`
	Warnings   []string                    `json:"warnings,omitempty"`
	ConfigHash string                      `json:"config_hash"`
}

// ScoreSupplier computes one supplier's breakdown for an item context.
// Inactive suppliers are scored too but flagged as not eligible.
func (s *Service) ScoreSupplier(ctx context.Context, supplierID int64, item contracts.ItemContext) (*SupplierScore, error) {
	supplier, err := s.deps.Suppliers.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	c := s.fetchCandidate(ctx, *supplier)
	if c.Err != nil {
		return nil, fmt.Errorf("supplier %d: %w", supplierID, c.Err)
	}

	var warnings []string
	if item.Prices == nil && s.deps.Prices != nil {
		prices, err := s.deps.Prices.GetPriceSnapshot(ctx, item)
		if err != nil {
			s.logger.WithSupplier(supplierID).WithError(err).Warn("Price data unavailable")
			warnings = append(warnings, "price data unavailable: "+err.Error())
		}
		item.Prices = prices
	}

	m := s.ranker.Metrics(c, item)

	return &SupplierScore{
		Supplier:   *supplier,
		Eligible:   supplier.Status.IsEligible(),
		Scores:     s.scorer.Score(*supplier, m, item),
		Metrics:    m,
		Warnings:   warnings,
		ConfigHash: s.configHash,
	}, nil
}

// SnapshotResult summarises one snapshot run
type SnapshotResult struct {
	BatchID string                    `json:"batch_id"`
	Date    time.Time                 `json:"date"`
	Rows    []contracts.ScoreSnapshot `json:"rows"`
}

// Snapshot ranks the whole active pool without item context and persists one row per supplier.
// The save replaces the day's rows, so a run with omitted suppliers saves nothing
// and returns ErrSnapshotIncomplete.
func (s *Service) Snapshot(ctx context.Context) (*SnapshotResult, error) {
	if s.deps.Snapshots == nil {
		return nil, ErrSnapshotStoreMissing
	}

	suppliers, err := s.deps.Suppliers.ListCandidates(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSupplierPoolUnavailable, err)
	}

	item := contracts.ItemContext{}
	fetched, err := s.gather(ctx, suppliers, item)
	if err != nil {
		return nil, err
	}

	ranking := s.ranker.Recommend(fetched.candidates, item, 0)
	if len(ranking.Omitted) > 0 {
		for _, o := range ranking.Omitted {
			s.logger.WithFields(map[string]interface{}{"supplier_id": o.SupplierID, "reason": o.Reason}).Warn("Supplier omitted from score snapshot")
		}
		return nil, fmt.Errorf("%w: %d of %d suppliers unavailable",
			ErrSnapshotIncomplete, len(ranking.Omitted), len(ranking.Omitted)+len(ranking.Entries))
	}

	now := s.now()
	utc := now.UTC()
	date := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	result := &SnapshotResult{
		BatchID: s.newID(),
		Date:    date,
		Rows:    make([]contracts.ScoreSnapshot, 0, len(ranking.Entries)),
	}

	for _, e := range ranking.Entries {
		row := contracts.ScoreSnapshot{
			BatchID:       result.BatchID,
			SnapshotDate:  date,
			SupplierID:    e.SupplierID,
			Rank:          e.Rank,
			TotalScore:    e.Scores.TotalScore,
			Grade:         e.Scores.Grade,
			CompletedJobs: e.Metrics.CompletedJobs,
			CurrentLoad:   e.Metrics.CurrentLoad,
			ConfigHash:    s.configHash,
			CreatedAt:     now,
		}
		if m, ok := ranking.Metrics[e.SupplierID]; ok && m.PromiseKeepingRate != nil {
			rate := *m.PromiseKeepingRate
			row.PromiseKeepingRate = &rate
		}
		result.Rows = append(result.Rows, row)
	}

	if err := s.deps.Snapshots.SaveScoreSnapshots(ctx, date, result.Rows); err != nil {
		return nil, fmt.Errorf("save snapshots: %w", err)
	}
	s.deps.Metrics.RecordSnapshot(len(result.Rows))

	s.logger.WithFields(map[string]interface{}{
		"batch_id": result.BatchID,
		"date":     date.Format("2006-01-02"),
		"rows":     len(result.Rows),
	}).Info("Score snapshot saved")

	return result, nil
}

// LatestSnapshots returns the newest snapshot rows by rank
func (s *Service) LatestSnapshots(ctx context.Context, limit int) ([]contracts.ScoreSnapshot, error) {
	if s.deps.Snapshots == nil {
		return nil, ErrSnapshotStoreMissing
	}
	return s.deps.Snapshots.GetLatestScoreSnapshots(ctx, limit)
}
