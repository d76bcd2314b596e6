package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// AttendanceRepository persists attendance sheets, student rows, and the
// append-only transition history.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CreateIfAbsent inserts the sheet unless one with the same id already
// exists, then returns the stored row either way. Sheet ids are derived from
// the (education, grade, class) key, which makes this naturally idempotent.
func (r *AttendanceRepository) CreateIfAbsent(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceSheet, error) {
	if sheet.Status == "" {
		sheet.Status = models.AttendanceTeacherDraft
	}
	now := time.Now().UTC()
	if sheet.CreatedAt.IsZero() {
		sheet.CreatedAt = now
	}
	sheet.UpdatedAt = now

	const insert = `INSERT INTO attendance_sheets
	(id, education_id, institution_name, grade, class_name, teacher_name, status, created_at, updated_at)
	VALUES (:id, :education_id, :institution_name, :grade, :class_name, :teacher_name, :status, :created_at, :updated_at)
	ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, insert, sheet); err != nil {
		return nil, fmt.Errorf("create attendance sheet: %w", err)
	}
	return r.GetByID(ctx, sheet.ID)
}

// GetByID fetches one sheet.
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*models.AttendanceSheet, error) {
	const query = `SELECT id, education_id, institution_name, grade, class_name, teacher_name, status, created_at, updated_at
	FROM attendance_sheets WHERE id = $1`
	var sheet models.AttendanceSheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// TransitionStatus applies one workflow move: the status swap and the history
// row commit together, and the swap is guarded by the expected current status
// so racing actors cannot double-apply. Zero affected rows surfaces as
// sql.ErrNoRows.
func (r *AttendanceRepository) TransitionStatus(ctx context.Context, sheetID string, from, to models.AttendanceStatus, actor models.Actor) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE attendance_sheets SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		sheetID, from, to, now)
	if err != nil {
		return fmt.Errorf("update attendance status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated attendance rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attendance_transitions (id, sheet_id, status, actor_role, actor_id, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), sheetID, to, actor.Role, actor.ID, now); err != nil {
		return fmt.Errorf("record attendance transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance transition: %w", err)
	}
	return nil
}

// ListTransitions returns the history oldest first.
func (r *AttendanceRepository) ListTransitions(ctx context.Context, sheetID string) ([]models.AttendanceTransition, error) {
	const query = `SELECT id, sheet_id, status, actor_role, actor_id, recorded_at
	FROM attendance_transitions WHERE sheet_id = $1 ORDER BY recorded_at ASC, id ASC`
	var transitions []models.AttendanceTransition
	if err := r.db.SelectContext(ctx, &transitions, query, sheetID); err != nil {
		return nil, fmt.Errorf("list attendance transitions: %w", err)
	}
	return transitions, nil
}

// AddStudent appends one student row.
func (r *AttendanceRepository) AddStudent(ctx context.Context, student *models.AttendanceStudent) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	const query = `INSERT INTO attendance_students (id, sheet_id, number, name, note)
	VALUES (:id, :sheet_id, :number, :name, :note)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("add attendance student: %w", err)
	}
	return nil
}

// ListStudents returns student rows ordered by number.
func (r *AttendanceRepository) ListStudents(ctx context.Context, sheetID string) ([]models.AttendanceStudent, error) {
	const query = `SELECT id, sheet_id, number, name, note
	FROM attendance_students WHERE sheet_id = $1 ORDER BY number ASC`
	var students []models.AttendanceStudent
	if err := r.db.SelectContext(ctx, &students, query, sheetID); err != nil {
		return nil, fmt.Errorf("list attendance students: %w", err)
	}
	return students, nil
}

// CountStudents returns the number of student rows on a sheet.
func (r *AttendanceRepository) CountStudents(ctx context.Context, sheetID string) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance_students WHERE sheet_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sheetID); err != nil {
		return 0, fmt.Errorf("count attendance students: %w", err)
	}
	return count, nil
}
