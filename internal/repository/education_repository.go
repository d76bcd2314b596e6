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

// EducationRepository persists education programs and their lesson plans.
type EducationRepository struct {
	db *sqlx.DB
}

// NewEducationRepository constructs the repository.
func NewEducationRepository(db *sqlx.DB) *EducationRepository {
	return &EducationRepository{db: db}
}

// Create inserts the education together with its lesson plan in one transaction.
func (r *EducationRepository) Create(ctx context.Context, education *models.Education, lessons []models.Lesson) error {
	if education.ID == "" {
		education.ID = uuid.NewString()
	}
	if education.Status == "" {
		education.Status = models.EducationStatusPending
	}
	now := time.Now().UTC()
	if education.CreatedAt.IsZero() {
		education.CreatedAt = now
	}
	education.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create education: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const eduQuery = `INSERT INTO educations
	(id, name, institution, region, grade_class, period_start, period_end, open_at, close_at, restriction, status, created_at, updated_at)
	VALUES (:id, :name, :institution, :region, :grade_class, :period_start, :period_end, :open_at, :close_at, :restriction, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, eduQuery, education); err != nil {
		return fmt.Errorf("create education: %w", err)
	}

	const lessonQuery = `INSERT INTO lessons
	(id, education_id, session, date, start_time, end_time, main_required, assistant_required)
	VALUES (:id, :education_id, :session, :date, :start_time, :end_time, :main_required, :assistant_required)`
	for i := range lessons {
		if lessons[i].ID == "" {
			lessons[i].ID = uuid.NewString()
		}
		lessons[i].EducationID = education.ID
		if _, err := tx.NamedExecContext(ctx, lessonQuery, lessons[i]); err != nil {
			return fmt.Errorf("create lesson %d: %w", lessons[i].Session, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create education: %w", err)
	}
	return nil
}

// GetByID fetches one education.
func (r *EducationRepository) GetByID(ctx context.Context, id string) (*models.Education, error) {
	const query = `SELECT id, name, institution, region, grade_class, period_start, period_end,
       open_at, close_at, restriction, status, created_at, updated_at
	FROM educations WHERE id = $1`
	var education models.Education
	if err := r.db.GetContext(ctx, &education, query, id); err != nil {
		return nil, err
	}
	return &education, nil
}

// List returns educations matching the filter, newest first.
func (r *EducationRepository) List(ctx context.Context, filter models.EducationFilter) ([]models.Education, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT id, name, institution, region, grade_class, period_start, period_end,
       open_at, close_at, restriction, status, created_at, updated_at FROM educations`)

	conditions := make([]string, 0, 2)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var educations []models.Education
	if err := r.db.SelectContext(ctx, &educations, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list educations: %w", err)
	}
	return educations, nil
}

// UpdateStatus performs a compare-and-swap on the current status. Zero
// affected rows means another actor moved the education first; callers see
// that as sql.ErrNoRows and must re-read.
func (r *EducationRepository) UpdateStatus(ctx context.Context, id string, from, to models.EducationStatus) error {
	const query = `UPDATE educations SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update education status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated education rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateActivation stores activation timestamps and the application restriction.
func (r *EducationRepository) UpdateActivation(ctx context.Context, id string, openAt, closeAt *time.Time, restriction models.ApplicationRestriction) error {
	const query = `UPDATE educations SET open_at = $2, close_at = $3, restriction = $4, updated_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, openAt, closeAt, restriction, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update education activation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated activation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDueForOpen returns UPCOMING educations whose open time has elapsed.
func (r *EducationRepository) ListDueForOpen(ctx context.Context, now time.Time, limit int) ([]models.Education, error) {
	return r.listDue(ctx, models.EducationStatusUpcoming, "open_at", now, limit)
}

// ListDueForClose returns OPEN_FOR_APPLICATION educations whose close time has elapsed.
func (r *EducationRepository) ListDueForClose(ctx context.Context, now time.Time, limit int) ([]models.Education, error) {
	return r.listDue(ctx, models.EducationStatusOpenForApplication, "close_at", now, limit)
}

func (r *EducationRepository) listDue(ctx context.Context, status models.EducationStatus, column string, now time.Time, limit int) ([]models.Education, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, name, institution, region, grade_class, period_start, period_end,
       open_at, close_at, restriction, status, created_at, updated_at
	FROM educations WHERE status = $1 AND %s IS NOT NULL AND %s <= $2
	ORDER BY %s ASC LIMIT %d`, column, column, column, limit)
	var educations []models.Education
	if err := r.db.SelectContext(ctx, &educations, query, status, now); err != nil {
		return nil, fmt.Errorf("list due educations: %w", err)
	}
	return educations, nil
}

// ListLessons returns the lesson plan ordered by session number.
func (r *EducationRepository) ListLessons(ctx context.Context, educationID string) ([]models.Lesson, error) {
	const query = `SELECT id, education_id, session, date, start_time, end_time, main_required, assistant_required
	FROM lessons WHERE education_id = $1 ORDER BY session ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, educationID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// GetLessonBySession fetches one lesson of an education.
func (r *EducationRepository) GetLessonBySession(ctx context.Context, educationID string, session int) (*models.Lesson, error) {
	const query = `SELECT id, education_id, session, date, start_time, end_time, main_required, assistant_required
	FROM lessons WHERE education_id = $1 AND session = $2`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, educationID, session); err != nil {
		return nil, err
	}
	return &lesson, nil
}
