package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// SettlementRepository persists settlement export jobs.
type SettlementRepository struct {
	db *sqlx.DB
}

// NewSettlementRepository constructs the repository.
func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create inserts a new job.
func (r *SettlementRepository) Create(ctx context.Context, job *models.SettlementJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.SettlementQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO settlement_jobs
	(id, month, region, format, status, result_path, result_url, error_message, requested_by, created_at, finished_at)
	VALUES (:id, :month, :region, :format, :status, :result_path, :result_url, :error_message, :requested_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create settlement job: %w", err)
	}
	return nil
}

// GetByID fetches one job.
func (r *SettlementRepository) GetByID(ctx context.Context, id string) (*models.SettlementJob, error) {
	const query = `SELECT id, month, region, format, status, result_path, result_url, error_message, requested_by, created_at, finished_at
	FROM settlement_jobs WHERE id = $1`
	var job models.SettlementJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateSettlementParams groups mutable columns for worker updates.
type UpdateSettlementParams struct {
	ID           string
	Status       models.SettlementStatus
	ResultPath   *string
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies worker progress to a job.
func (r *SettlementRepository) Update(ctx context.Context, params UpdateSettlementParams) error {
	sets := []string{"status = :status"}
	if params.ResultPath != nil {
		sets = append(sets, "result_path = :result_path")
	}
	if params.ResultURL != nil {
		sets = append(sets, "result_url = :result_url")
	}
	if params.ErrorMessage != nil {
		sets = append(sets, "error_message = :error_message")
	}
	if params.FinishedAt != nil {
		sets = append(sets, "finished_at = :finished_at")
	}
	query := fmt.Sprintf(`UPDATE settlement_jobs SET %s WHERE id = :id`, strings.Join(sets, ", "))
	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("update settlement job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated settlement rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListQueued returns jobs awaiting processing, used for restart recovery.
func (r *SettlementRepository) ListQueued(ctx context.Context, limit int) ([]models.SettlementJob, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, month, region, format, status, result_path, result_url, error_message, requested_by, created_at, finished_at
	FROM settlement_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var jobs []models.SettlementJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.SettlementQueued, limit); err != nil {
		return nil, fmt.Errorf("list queued settlement jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than the cutoff for cleanup.
func (r *SettlementRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SettlementJob, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, month, region, format, status, result_path, result_url, error_message, requested_by, created_at, finished_at
	FROM settlement_jobs WHERE finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.SettlementJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished settlement jobs: %w", err)
	}
	return jobs, nil
}
