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

// ApplicationRepository persists instructor applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.InstructorApplication) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.Status == "" {
		application.Status = models.ApplicationPending
	}
	if application.ApplicationDate.IsZero() {
		application.ApplicationDate = time.Now().UTC()
	}
	const query = `INSERT INTO instructor_applications
	(id, education_id, instructor_id, instructor_name, role, application_date, status, decided_by, decided_at)
	VALUES (:id, :education_id, :instructor_id, :instructor_name, :role, :application_date, :status, :decided_by, :decided_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID fetches one application.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.InstructorApplication, error) {
	const query = `SELECT id, education_id, instructor_id, instructor_name, role, application_date, status, decided_by, decided_at
	FROM instructor_applications WHERE id = $1`
	var application models.InstructorApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// GetByEducationAndInstructor returns the application an instructor filed for
// a program, if any.
func (r *ApplicationRepository) GetByEducationAndInstructor(ctx context.Context, educationID, instructorID string) (*models.InstructorApplication, error) {
	const query = `SELECT id, education_id, instructor_id, instructor_name, role, application_date, status, decided_by, decided_at
	FROM instructor_applications WHERE education_id = $1 AND instructor_id = $2`
	var application models.InstructorApplication
	if err := r.db.GetContext(ctx, &application, query, educationID, instructorID); err != nil {
		return nil, err
	}
	return &application, nil
}

// List returns applications matching the filter, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.InstructorApplication, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT id, education_id, instructor_id, instructor_name, role, application_date, status, decided_by, decided_at
	FROM instructor_applications`)

	conditions := make([]string, 0, 3)
	if filter.EducationID != "" {
		args = append(args, filter.EducationID)
		conditions = append(conditions, fmt.Sprintf("education_id = $%d", len(args)))
	}
	if filter.InstructorID != "" {
		args = append(args, filter.InstructorID)
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY application_date DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var applications []models.InstructorApplication
	if err := r.db.SelectContext(ctx, &applications, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return applications, nil
}

// UpdateStatus records the administrator decision. Only PENDING applications
// can be decided; zero affected rows surfaces as sql.ErrNoRows.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedBy string) error {
	const query = `UPDATE instructor_applications SET status = $2, decided_by = $3, decided_at = $4
	WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, status, decidedBy, time.Now().UTC(), models.ApplicationPending)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated application rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
