package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// ErrCapacityExceeded is returned when an assign or confirm would push an
// instructor past their monthly session limit.
var ErrCapacityExceeded = errors.New("monthly session capacity exceeded")

// AssignmentRepository persists instructor-to-lesson bindings.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AssignBatchParams carries one all-or-nothing assign call.
type AssignBatchParams struct {
	InstructorID   string
	InstructorName string
	Role           models.InstructorRole
	Lessons        []models.Lesson
	MonthlyLimit   int
}

// AssignBatch inserts one APPLIED binding per targeted lesson, or nothing.
// The instructor row is locked for the duration so concurrent assigns and
// confirms against the same instructor serialize; the monthly capacity check
// therefore reads a stable count. Lessons where the instructor is already
// present (either role) are skipped rather than rejected.
func (r *AssignmentRepository) AssignBatch(ctx context.Context, params AssignBatchParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockInstructor(ctx, tx, params.InstructorID); err != nil {
		return err
	}

	// New sessions per calendar month, skipping lessons already bound.
	added := make(map[string][]models.Lesson)
	for _, lesson := range params.Lessons {
		var exists int
		err := tx.GetContext(ctx, &exists,
			`SELECT 1 FROM lesson_instructors WHERE lesson_id = $1 AND instructor_id = $2 LIMIT 1`,
			lesson.ID, params.InstructorID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check existing binding: %w", err)
		}
		month := lesson.Date.UTC().Format("2006-01")
		added[month] = append(added[month], lesson)
	}

	if params.MonthlyLimit > 0 {
		for month, lessons := range added {
			confirmed, err := countConfirmedInMonth(ctx, tx, params.InstructorID, params.Role, month)
			if err != nil {
				return err
			}
			if confirmed+len(lessons) > params.MonthlyLimit {
				return ErrCapacityExceeded
			}
		}
	}

	const insert = `INSERT INTO lesson_instructors
	(id, lesson_id, education_id, instructor_id, name, role, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	for _, lessons := range added {
		for _, lesson := range lessons {
			if _, err := tx.ExecContext(ctx, insert,
				uuid.NewString(), lesson.ID, lesson.EducationID,
				params.InstructorID, params.InstructorName, params.Role,
				models.BindingApplied, now); err != nil {
				return fmt.Errorf("insert binding: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign: %w", err)
	}
	return nil
}

// Confirm marks an existing binding CONFIRMED, re-checking capacity under the
// instructor lock. Returns sql.ErrNoRows when the binding does not exist.
func (r *AssignmentRepository) Confirm(ctx context.Context, lesson *models.Lesson, instructorID string, monthlyLimit int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockInstructor(ctx, tx, instructorID); err != nil {
		return err
	}

	var binding models.LessonInstructor
	const get = `SELECT li.id, li.lesson_id, li.education_id, l.session, li.instructor_id, li.name, li.role, li.status, li.created_at
	FROM lesson_instructors li JOIN lessons l ON l.id = li.lesson_id
	WHERE li.lesson_id = $1 AND li.instructor_id = $2`
	if err := tx.GetContext(ctx, &binding, get, lesson.ID, instructorID); err != nil {
		return err
	}
	if binding.Status == models.BindingConfirmed {
		return nil
	}

	if monthlyLimit > 0 {
		month := lesson.Date.UTC().Format("2006-01")
		confirmed, err := countConfirmedInMonth(ctx, tx, instructorID, binding.Role, month)
		if err != nil {
			return err
		}
		if confirmed+1 > monthlyLimit {
			return ErrCapacityExceeded
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE lesson_instructors SET status = $3 WHERE lesson_id = $1 AND instructor_id = $2`,
		lesson.ID, instructorID, models.BindingConfirmed); err != nil {
		return fmt.Errorf("confirm binding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm: %w", err)
	}
	return nil
}

// Delete removes a binding. Returns sql.ErrNoRows when absent.
func (r *AssignmentRepository) Delete(ctx context.Context, lessonID, instructorID string) error {
	const query = `DELETE FROM lesson_instructors WHERE lesson_id = $1 AND instructor_id = $2`
	result, err := r.db.ExecContext(ctx, query, lessonID, instructorID)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted binding rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByEducation returns all bindings of an education ordered by session.
func (r *AssignmentRepository) ListByEducation(ctx context.Context, educationID string) ([]models.LessonInstructor, error) {
	const query = `SELECT li.id, li.lesson_id, li.education_id, l.session, li.instructor_id, li.name, li.role, li.status, li.created_at
	FROM lesson_instructors li JOIN lessons l ON l.id = li.lesson_id
	WHERE li.education_id = $1 ORDER BY l.session ASC, li.role ASC`
	var bindings []models.LessonInstructor
	if err := r.db.SelectContext(ctx, &bindings, query, educationID); err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	return bindings, nil
}

// ListByInstructor returns an instructor's bindings across all educations.
func (r *AssignmentRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.LessonInstructor, error) {
	const query = `SELECT li.id, li.lesson_id, li.education_id, l.session, li.instructor_id, li.name, li.role, li.status, li.created_at
	FROM lesson_instructors li JOIN lessons l ON l.id = li.lesson_id
	WHERE li.instructor_id = $1 ORDER BY l.date ASC`
	var bindings []models.LessonInstructor
	if err := r.db.SelectContext(ctx, &bindings, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor bindings: %w", err)
	}
	return bindings, nil
}

func lockInstructor(ctx context.Context, tx *sqlx.Tx, instructorID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM instructors WHERE id = $1 FOR UPDATE`, instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock instructor: %w", err)
	}
	return nil
}

func countConfirmedInMonth(ctx context.Context, tx *sqlx.Tx, instructorID string, role models.InstructorRole, month string) (int, error) {
	const query = `SELECT COUNT(*) FROM lesson_instructors li
	JOIN lessons l ON l.id = li.lesson_id
	WHERE li.instructor_id = $1 AND li.role = $2 AND li.status = $3
	  AND to_char(l.date, 'YYYY-MM') = $4`
	var count int
	if err := tx.GetContext(ctx, &count, query, instructorID, role, models.BindingConfirmed, month); err != nil {
		return 0, fmt.Errorf("count confirmed sessions: %w", err)
	}
	return count, nil
}
