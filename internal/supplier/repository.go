package supplier

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/printdesk/backend/internal/contracts"
)

//go:embed schema.sql
var schemaSQL string

// Repository reads suppliers and job history, and stores score snapshots
// ⭐ SSOT: 공급사/작업 이력 DB 접근은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new supplier repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const supplierColumns = `id, name, company_name, status, categories, created_at`

// ListCandidates returns every supplier registered for category (all categories when empty).
// Status is not filtered here; the ranker drops anything not active.
func (r *Repository) ListCandidates(ctx context.Context, category string) ([]contracts.Supplier, error) {
	query := `
		SELECT ` + supplierColumns + `
		FROM printdesk.suppliers
		WHERE $1 = '' OR $1 = ANY(categories)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]contracts.Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}

	return suppliers, nil
}

// GetSupplier returns one supplier or contracts.ErrSupplierNotFound
func (r *Repository) GetSupplier(ctx context.Context, id int64) (*contracts.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM printdesk.suppliers WHERE id = $1`

	s, err := scanSupplier(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("supplier %d: %w", id, contracts.ErrSupplierNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSupplier(row pgx.Row) (*contracts.Supplier, error) {
	var s contracts.Supplier
	var status string
	if err := row.Scan(&s.ID, &s.Name, &s.CompanyName, &status, &s.Categories, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan supplier: %w", err)
	}
	s.Status = contracts.SupplierStatus(status)
	return &s, nil
}

// GetJobRecords returns the supplier's full job history, oldest first
func (r *Repository) GetJobRecords(ctx context.Context, supplierID int64) ([]contracts.JobRecord, error) {
	query := `
		SELECT id, supplier_id, quote_item_id, category, state, promised_days,
		       courier_verified, rating, cancelled, cancel_reason,
		       created_at, accepted_at, ready_at, picked_up_at, delivered_at
		FROM printdesk.jobs
		WHERE supplier_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs for supplier %d: %w", supplierID, err)
	}
	defer rows.Close()

	jobs := make([]contracts.JobRecord, 0)
	for rows.Next() {
		var j contracts.JobRecord
		var category, cancelReason *string
		var state string

		err := rows.Scan(
			&j.ID, &j.SupplierID, &j.QuoteItemID, &category, &state, &j.PromisedDays,
			&j.CourierVerified, &j.Rating, &j.Cancelled, &cancelReason,
			&j.CreatedAt, &j.AcceptedAt, &j.ReadyAt, &j.PickedUpAt, &j.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		j.State = contracts.JobState(state)
		if category != nil {
			j.Category = *category
		}
		if cancelReason != nil {
			j.CancelReason = *cancelReason
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

// CountOpenJobs returns the supplier's current load at call time
func (r *Repository) CountOpenJobs(ctx context.Context, supplierID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM printdesk.jobs
		WHERE supplier_id = $1
		  AND NOT cancelled
		  AND state = ANY($2)
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, supplierID, openStates()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open jobs for supplier %d: %w", supplierID, err)
	}
	return count, nil
}

func openStates() []string {
	return []string{
		string(contracts.JobPending),
		string(contracts.JobInProgress),
		string(contracts.JobInProduction),
	}
}

// SaveScoreSnapshots replaces all snapshot rows for date in one transaction
func (r *Repository) SaveScoreSnapshots(ctx context.Context, date time.Time, rows []contracts.ScoreSnapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM printdesk.score_snapshots WHERE snapshot_date = $1", date); err != nil {
		return fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	query := `
		INSERT INTO printdesk.score_snapshots (
			batch_id, snapshot_date, supplier_id, rank, total_score, grade,
			completed_jobs, promise_keeping_rate, current_load, config_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, s := range rows {
		batch.Queue(query,
			s.BatchID, date, s.SupplierID, s.Rank, s.TotalScore, string(s.Grade),
			s.CompletedJobs, s.PromiseKeepingRate, s.CurrentLoad, s.ConfigHash,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetLatestScoreSnapshots returns the most recent snapshot date's rows by rank
func (r *Repository) GetLatestScoreSnapshots(ctx context.Context, limit int) ([]contracts.ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT batch_id::text, snapshot_date, supplier_id, rank, total_score, grade,
		       completed_jobs, promise_keeping_rate, current_load, config_hash, created_at
		FROM printdesk.score_snapshots
		WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM printdesk.score_snapshots)
		ORDER BY rank
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]contracts.ScoreSnapshot, 0)
	for rows.Next() {
		var s contracts.ScoreSnapshot
		var grade string
		err := rows.Scan(
			&s.BatchID, &s.SnapshotDate, &s.SupplierID, &s.Rank, &s.TotalScore, &grade,
			&s.CompletedJobs, &s.PromiseKeepingRate, &s.CurrentLoad, &s.ConfigHash, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Grade = contracts.Grade(grade)
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}
