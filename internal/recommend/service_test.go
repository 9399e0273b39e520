package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/printdesk/backend/internal/contracts"
	"github.com/wonny/printdesk/backend/internal/metrics"
	"github.com/wonny/printdesk/backend/internal/scoringconfig"
)

// ---- fakes ----

type fakeSuppliers struct {
	list    []contracts.Supplier
	listErr error
	calls   int32
}

func (f *fakeSuppliers) ListCandidates(ctx context.Context, category string) ([]contracts.Supplier, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]contracts.Supplier, 0, len(f.list))
	for _, s := range f.list {
		if category == "" || containsString(s.Categories, category) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSuppliers) GetSupplier(ctx context.Context, id int64) (*contracts.Supplier, error) {
	for _, s := range f.list {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, contracts.ErrSupplierNotFound
}

type fakeJobs struct {
	mu      sync.Mutex
	jobs    map[int64][]contracts.JobRecord
	errs    map[int64]error
	fetched []int64
}

func (f *fakeJobs) GetJobRecords(ctx context.Context, supplierID int64) ([]contracts.JobRecord, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, supplierID)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[supplierID]; err != nil {
		return nil, err
	}
	return f.jobs[supplierID], nil
}

type fakeOpenJobs map[int64]int

func (f fakeOpenJobs) CountOpenJobs(ctx context.Context, supplierID int64) (int, error) {
	return f[supplierID], nil
}

type fakePrices struct {
	snap *contracts.PriceSnapshot
	err  error
}

func (f *fakePrices) GetPriceSnapshot(ctx context.Context, item contracts.ItemContext) (*contracts.PriceSnapshot, error) {
	return f.snap, f.err
}

type fakeStore struct {
	date time.Time
	rows []contracts.ScoreSnapshot
	err  error
}

func (f *fakeStore) SaveScoreSnapshots(ctx context.Context, date time.Time, rows []contracts.ScoreSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.date = date
	f.rows = rows
	return nil
}

func (f *fakeStore) GetLatestScoreSnapshots(ctx context.Context, limit int) ([]contracts.ScoreSnapshot, error) {
	if limit > 0 && limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

// memCache stores JSON like the Redis cache does
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

// ---- fixtures ----

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func supplier(id int64, status contracts.SupplierStatus) contracts.Supplier {
	return contracts.Supplier{
		ID:          id,
		Name:        "s",
		CompanyName: "Co",
		Status:      status,
		Categories:  []string{"business_cards"},
	}
}

func deliveredJobs(supplierID int64, n, promised, days int) []contracts.JobRecord {
	jobs := make([]contracts.JobRecord, 0, n)
	ok := true
	for i := 0; i < n; i++ {
		accepted := t0
		ready := t0.Add(time.Duration(days) * 24 * time.Hour)
		jobs = append(jobs, contracts.JobRecord{
			SupplierID:      supplierID,
			Category:        "business_cards",
			State:           contracts.JobDelivered,
			PromisedDays:    promised,
			CourierVerified: &ok,
			AcceptedAt:      &accepted,
			ReadyAt:         &ready,
		})
	}
	return jobs
}

type fixture struct {
	suppliers *fakeSuppliers
	jobs      *fakeJobs
	prices    *fakePrices
	store     *fakeStore
	cache     *memCache
	registry  *prometheus.Registry
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		suppliers: &fakeSuppliers{list: []contracts.Supplier{
			supplier(1, contracts.SupplierActive),
			supplier(2, contracts.SupplierActive),
			supplier(3, contracts.SupplierActive),
			supplier(4, contracts.SupplierDeactivated),
			supplier(5, contracts.SupplierPendingApproval),
		}},
		jobs: &fakeJobs{
			jobs: map[int64][]contracts.JobRecord{
				1: deliveredJobs(1, 10, 5, 5), // on time
				2: deliveredJobs(2, 10, 5, 8), // late
				4: deliveredJobs(4, 30, 5, 3), // excellent but deactivated
				5: deliveredJobs(5, 30, 5, 3),
			},
			errs: map[int64]error{},
		},
		prices: &fakePrices{},
		store:  &fakeStore{},
		cache:  newMemCache(),
	}

	f.registry = prometheus.NewRegistry()
	collector, err := metrics.NewCollector(f.registry)
	require.NoError(t, err)

	f.svc, err = NewService(Deps{
		Suppliers: f.suppliers,
		Jobs:      f.jobs,
		OpenJobs:  fakeOpenJobs{1: 1, 2: 0, 3: 0},
		Prices:    f.prices,
		Snapshots: f.store,
		Cache:     f.cache,
		Metrics:   collector,
	}, scoringconfig.Default(), Options{CacheTTL: 30 * time.Second, FetchConcurrency: 2}, nil)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return t0 }
	var seq int32
	f.svc.newID = func() string {
		return "run-" + string(rune('a'+atomic.AddInt32(&seq, 1)-1))
	}
	return f
}

func ids(entries []contracts.RecommendationEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.SupplierID)
	}
	return out
}

// ---- tests ----

func TestNewService_RequiresSources(t *testing.T) {
	_, err := NewService(Deps{}, scoringconfig.Default(), Options{}, nil)
	assert.Error(t, err)

	bad := scoringconfig.Default()
	bad.Price.Comparison = "nope"
	_, err = NewService(Deps{Suppliers: &fakeSuppliers{}, Jobs: &fakeJobs{}}, bad, Options{}, nil)
	assert.Error(t, err)
}

func TestRecommend_RanksActiveSuppliers(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 42, Category: "business_cards"}, 0)
	require.NoError(t, err)

	assert.Equal(t, contracts.RecommendationOK, rec.Status)
	assert.Equal(t, []int64{1, 3, 2}, ids(rec.Entries))
	assert.Equal(t, "run-a", rec.RunID)
	assert.Equal(t, f.svc.ConfigHash(), rec.ConfigHash)
	assert.Equal(t, t0, rec.GeneratedAt)

	// inactive suppliers are never fetched
	assert.ElementsMatch(t, []int64{1, 2, 3}, f.jobs.fetched)

	// open-job counter is authoritative
	assert.Equal(t, 1, rec.Entries[0].Metrics.CurrentLoad)
}

func TestRecommend_TopK(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(rec.Entries))
}

func TestRecommend_PartialOnSupplierFailure(t *testing.T) {
	f := newFixture(t)
	f.jobs.errs[2] = errors.New("read timeout")

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1}, 0)
	require.NoError(t, err)

	assert.Equal(t, contracts.RecommendationPartial, rec.Status)
	assert.Equal(t, []int64{1, 3}, ids(rec.Entries))
	require.Len(t, rec.Omitted, 1)
	assert.Equal(t, int64(2), rec.Omitted[0].SupplierID)
	assert.Contains(t, rec.Omitted[0].Reason, "read timeout")

	// partial results are not cached
	assert.Empty(t, f.cache.data)

	expected := `
# HELP printdesk_suppliers_omitted_total Suppliers left out of a recommendation because their data could not be fetched
# TYPE printdesk_suppliers_omitted_total counter
printdesk_suppliers_omitted_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected),
		"printdesk_suppliers_omitted_total"))
}

func TestRecommend_AllFetchesFail(t *testing.T) {
	f := newFixture(t)
	for _, id := range []int64{1, 2, 3} {
		f.jobs.errs[id] = errors.New("db down")
	}

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1}, 0)
	require.NoError(t, err)

	assert.Equal(t, contracts.RecommendationFetchFailed, rec.Status)
	assert.Empty(t, rec.Entries)
	assert.Len(t, rec.Omitted, 3)
}

func TestRecommend_NoEligibleSuppliers(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1, Category: "banners"}, 0)
	require.NoError(t, err)

	assert.Equal(t, contracts.RecommendationNoEligible, rec.Status)
	assert.Empty(t, rec.Entries)
	assert.Empty(t, rec.Omitted)
}

func TestRecommend_PoolUnavailable(t *testing.T) {
	f := newFixture(t)
	f.suppliers.listErr = errors.New("connection refused")

	_, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1}, 0)
	assert.ErrorIs(t, err, ErrSupplierPoolUnavailable)
}

func TestRecommend_PriceFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	f.prices.err = errors.New("catalog 503")

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1, ProductKey: "bc"}, 0)
	require.NoError(t, err)

	assert.Equal(t, contracts.RecommendationOK, rec.Status)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0], "catalog 503")
	for _, e := range rec.Entries {
		assert.Zero(t, e.Scores.Price.Value)
	}
	assert.Empty(t, f.cache.data)
}

func TestRecommend_UsesPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	avg := 100.0
	f.prices.snap = &contracts.PriceSnapshot{
		Prices:          map[int64]float64{1: 100, 2: 100, 3: 80},
		CategoryAverage: &avg,
	}

	rec, err := f.svc.Recommend(context.Background(), contracts.ItemContext{ItemID: 1, ProductKey: "bc"}, 0)
	require.NoError(t, err)

	// new supplier 3 at 20% below average: 70 + 10
	for _, e := range rec.Entries {
		if e.SupplierID == 3 {
			assert.Equal(t, 80.0, e.Scores.TotalScore)
			assert.True(t, e.Scores.IsNewSupplier)
		}
	}
}

func TestRecommend_CacheHit(t *testing.T) {
	f := newFixture(t)
	item := contracts.ItemContext{ItemID: 7, Category: "business_cards"}

	first, err := f.svc.Recommend(context.Background(), item, 3)
	require.NoError(t, err)
	require.Len(t, f.cache.data, 1)
	for _, ttl := range f.cache.ttls {
		assert.Equal(t, 30*time.Second, ttl)
	}

	second, err := f.svc.Recommend(context.Background(), item, 3)
	require.NoError(t, err)

	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, ids(first.Entries), ids(second.Entries))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.suppliers.calls), "second call served from cache")

	expected := `
# HELP printdesk_recommendation_cache_total Recommendation cache lookups, by result
# TYPE printdesk_recommendation_cache_total counter
printdesk_recommendation_cache_total{result="hit"} 1
printdesk_recommendation_cache_total{result="miss"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected),
		"printdesk_recommendation_cache_total"))
}

func TestRecommend_Deterministic(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.Cache = nil
	f.svc.newID = func() string { return "fixed" }

	item := contracts.ItemContext{ItemID: 1, Category: "business_cards"}
	a, err := f.svc.Recommend(context.Background(), item, 0)
	require.NoError(t, err)
	b, err := f.svc.Recommend(context.Background(), item, 0)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
}

func TestRecommend_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.Cache = nil

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Recommend(ctx, contracts.ItemContext{ItemID: 1}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreSupplier(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ScoreSupplier(context.Background(), 1, contracts.ItemContext{})
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Equal(t, 10, res.Metrics.CompletedJobs)
	assert.Equal(t, 1, res.Metrics.CurrentLoad)
	assert.Equal(t, int64(1), res.Scores.SupplierID)

	inactive, err := f.svc.ScoreSupplier(context.Background(), 4, contracts.ItemContext{})
	require.NoError(t, err)
	assert.False(t, inactive.Eligible)

	_, err = f.svc.ScoreSupplier(context.Background(), 99, contracts.ItemContext{})
	assert.ErrorIs(t, err, contracts.ErrSupplierNotFound)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-a", res.BatchID)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), f.store.date)
	require.Len(t, f.store.rows, 3, "only active suppliers are snapshotted")
	for i, row := range f.store.rows {
		assert.Equal(t, i+1, row.Rank)
		assert.Equal(t, f.svc.ConfigHash(), row.ConfigHash)
	}

	expected := `
# HELP printdesk_score_snapshots_total Supplier score snapshot rows written
# TYPE printdesk_score_snapshots_total counter
printdesk_score_snapshots_total 3
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected),
		"printdesk_score_snapshots_total"))

	latest, err := f.svc.LatestSnapshots(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}

func TestSnapshot_KeepsUnroundedPromiseRate(t *testing.T) {
	f := newFixture(t)
	// 2 of 3 kept → 0.666..., 표시값은 66.7%
	f.jobs.jobs[1] = append(deliveredJobs(1, 2, 5, 5), deliveredJobs(1, 1, 5, 8)...)

	_, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)

	var found bool
	for _, row := range f.store.rows {
		if row.SupplierID != 1 {
			continue
		}
		found = true
		require.NotNil(t, row.PromiseKeepingRate)
		assert.Equal(t, 2.0/3.0, *row.PromiseKeepingRate)
	}
	assert.True(t, found)
}

func TestSnapshot_IncompleteKeepsExistingRows(t *testing.T) {
	f := newFixture(t)
	existing := []contracts.ScoreSnapshot{{SupplierID: 1, Rank: 1}, {SupplierID: 2, Rank: 2}, {SupplierID: 3, Rank: 3}}
	f.store.rows = existing
	f.jobs.errs[2] = errors.New("connection reset")

	res, err := f.svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotIncomplete)
	assert.Nil(t, res)
	assert.Equal(t, existing, f.store.rows, "a partial run must not replace the day's rows")
	assert.True(t, f.store.date.IsZero())
}

func TestSnapshot_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("disk full")

	_, err := f.svc.Snapshot(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestSnapshot_NoStore(t *testing.T) {
	f := newFixture(t)
	f.svc.deps.Snapshots = nil

	_, err := f.svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotStoreMissing)
	_, err = f.svc.LatestSnapshots(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSnapshotStoreMissing)
}
