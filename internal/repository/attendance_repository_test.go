package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceSheetRows(status models.AttendanceStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "education_id", "institution_name", "grade", "class_name", "teacher_name", "status", "created_at", "updated_at"}).
		AddRow("sheet-1", "edu-1", "한빛초등학교", "3", "2", "Lee", status, time.Now(), time.Now())
}

func TestAttendanceRepositoryCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_sheets").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM attendance_sheets WHERE id = \\$1").
		WithArgs("sheet-1").
		WillReturnRows(attendanceSheetRows(models.AttendanceTeacherDraft))

	sheet, err := repo.CreateIfAbsent(context.Background(), &models.AttendanceSheet{
		ID:          "sheet-1",
		EducationID: "edu-1",
		Grade:       "3",
		ClassName:   "2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceTeacherDraft, sheet.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE attendance_sheets SET status").
		WithArgs("sheet-1", models.AttendanceTeacherDraft, models.AttendanceTeacherReady, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance_transitions").
		WithArgs(sqlmock.AnyArg(), "sheet-1", models.AttendanceTeacherReady, models.RoleSchoolTeacher, "t-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.TransitionStatus(context.Background(), "sheet-1",
		models.AttendanceTeacherDraft, models.AttendanceTeacherReady,
		models.Actor{ID: "t-1", Role: models.RoleSchoolTeacher})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryTransitionStatusLostRace(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE attendance_sheets SET status").
		WithArgs("sheet-1", models.AttendanceTeacherDraft, models.AttendanceTeacherReady, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.TransitionStatus(context.Background(), "sheet-1",
		models.AttendanceTeacherDraft, models.AttendanceTeacherReady,
		models.Actor{ID: "t-1", Role: models.RoleSchoolTeacher})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryAddAndCountStudents(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM attendance_students").
		WithArgs("sheet-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	student := &models.AttendanceStudent{SheetID: "sheet-1", Number: 1, Name: "Park"}
	require.NoError(t, repo.AddStudent(context.Background(), student))
	assert.NotEmpty(t, student.ID)

	count, err := repo.CountStudents(context.Background(), "sheet-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
