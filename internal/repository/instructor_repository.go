package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// InstructorRepository reads instructor records and capacity limits.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByID fetches one instructor.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, name, region, monthly_lead_max_sessions, monthly_assistant_max_sessions, active, created_at
	FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// CountConfirmedInMonth returns confirmed sessions for an instructor/role in
// a YYYY-MM month across all educations. Read-only variant used by views;
// the matcher re-counts inside its own transaction.
func (r *InstructorRepository) CountConfirmedInMonth(ctx context.Context, instructorID string, role models.InstructorRole, month string) (int, error) {
	const query = `SELECT COUNT(*) FROM lesson_instructors li
	JOIN lessons l ON l.id = li.lesson_id
	WHERE li.instructor_id = $1 AND li.role = $2 AND li.status = $3
	  AND to_char(l.date, 'YYYY-MM') = $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, instructorID, role, models.BindingConfirmed, month); err != nil {
		return 0, fmt.Errorf("count confirmed sessions: %w", err)
	}
	return count, nil
}
