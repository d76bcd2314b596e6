package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/pkg/export"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

type mockAttendanceRepo struct {
	sheets      map[string]models.AttendanceSheet
	students    map[string][]models.AttendanceStudent
	transitions map[string][]models.AttendanceTransition
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		sheets:      make(map[string]models.AttendanceSheet),
		students:    make(map[string][]models.AttendanceStudent),
		transitions: make(map[string][]models.AttendanceTransition),
	}
}

func (m *mockAttendanceRepo) CreateIfAbsent(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceSheet, error) {
	if existing, ok := m.sheets[sheet.ID]; ok {
		return &existing, nil
	}
	m.sheets[sheet.ID] = *sheet
	stored := *sheet
	return &stored, nil
}

func (m *mockAttendanceRepo) GetByID(ctx context.Context, id string) (*models.AttendanceSheet, error) {
	sheet, ok := m.sheets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sheet, nil
}

func (m *mockAttendanceRepo) TransitionStatus(ctx context.Context, sheetID string, from, to models.AttendanceStatus, actor models.Actor) error {
	sheet, ok := m.sheets[sheetID]
	if !ok || sheet.Status != from {
		return sql.ErrNoRows
	}
	sheet.Status = to
	m.sheets[sheetID] = sheet
	m.transitions[sheetID] = append(m.transitions[sheetID], models.AttendanceTransition{
		SheetID:    sheetID,
		Status:     to,
		ActorRole:  actor.Role,
		ActorID:    actor.ID,
		RecordedAt: time.Now().UTC(),
	})
	return nil
}

func (m *mockAttendanceRepo) ListTransitions(ctx context.Context, sheetID string) ([]models.AttendanceTransition, error) {
	return m.transitions[sheetID], nil
}

func (m *mockAttendanceRepo) AddStudent(ctx context.Context, student *models.AttendanceStudent) error {
	m.students[student.SheetID] = append(m.students[student.SheetID], *student)
	return nil
}

func (m *mockAttendanceRepo) ListStudents(ctx context.Context, sheetID string) ([]models.AttendanceStudent, error) {
	return m.students[sheetID], nil
}

func (m *mockAttendanceRepo) CountStudents(ctx context.Context, sheetID string) (int, error) {
	return len(m.students[sheetID]), nil
}

func newAttendanceFixture(t *testing.T) (*mockAttendanceRepo, *AttendanceService) {
	t.Helper()
	educations := newMockEducationRepo()
	seedEducation(educations, "edu-1", models.EducationStatusInProgress)
	repo := newMockAttendanceRepo()
	svc := NewAttendanceService(repo, educations, export.NewPDFExporter(), NopNotifier{}, nil, validator.New(), zap.NewNop())
	return repo, svc
}

var (
	teacher    = models.Actor{ID: "t-1", Role: models.RoleSchoolTeacher}
	instructor = models.Actor{ID: "i-1", Role: models.RoleInstructor}
	admin      = models.Actor{ID: "a-1", Role: models.RoleAdmin}
)

func TestAttendanceOpenIsIdempotent(t *testing.T) {
	_, svc := newAttendanceFixture(t)
	req := dto.OpenAttendanceRequest{EducationID: "edu-1", Grade: "3", ClassName: "2", TeacherName: "Choi"}

	first, err := svc.Open(context.Background(), req, teacher)
	require.NoError(t, err)
	second, err := svc.Open(context.Background(), req, teacher)
	require.NoError(t, err)
	assert.Equal(t, first.Sheet.ID, second.Sheet.ID)
	assert.Equal(t, models.AttendanceTeacherDraft, second.Sheet.Status)
	assert.Equal(t, "한빛초등학교", second.Sheet.InstitutionName)
}

func TestAttendanceWorkflowHappyPath(t *testing.T) {
	repo, svc := newAttendanceFixture(t)
	ctx := context.Background()

	detail, err := svc.Open(ctx, dto.OpenAttendanceRequest{EducationID: "edu-1", Grade: "3", ClassName: "2", TeacherName: "Choi"}, teacher)
	require.NoError(t, err)
	sheetID := detail.Sheet.ID

	// Ready with no students is rejected, and the error names what is missing.
	_, err = svc.MarkAsReady(ctx, sheetID, teacher)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details["missing"], "students")

	_, err = svc.AddStudent(ctx, sheetID, dto.AddStudentRequest{Number: 1, Name: "Minji"}, teacher)
	require.NoError(t, err)
	detail, err = svc.MarkAsReady(ctx, sheetID, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceTeacherReady, detail.Sheet.Status)

	detail, err = svc.RequestFromInstructor(ctx, sheetID, instructor)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceInstructorRequested, detail.Sheet.Status)

	detail, err = svc.SendToInstructor(ctx, sheetID, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceSentToInstructor, detail.Sheet.Status)

	detail, err = svc.Finalize(ctx, sheetID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAdminFinalized, detail.Sheet.Status)

	// Every move left a history row; the last one is the current status.
	history := repo.transitions[sheetID]
	require.Len(t, history, 4)
	assert.Equal(t, models.AttendanceAdminFinalized, history[3].Status)
	assert.Equal(t, models.RoleAdmin, history[3].ActorRole)
}

func TestAttendanceSendBeforeRequestIsRejected(t *testing.T) {
	_, svc := newAttendanceFixture(t)
	ctx := context.Background()

	detail, err := svc.Open(ctx, dto.OpenAttendanceRequest{EducationID: "edu-1", Grade: "1", ClassName: "1", TeacherName: "Choi"}, teacher)
	require.NoError(t, err)
	sheetID := detail.Sheet.ID
	_, err = svc.AddStudent(ctx, sheetID, dto.AddStudentRequest{Number: 1, Name: "Minji"}, teacher)
	require.NoError(t, err)
	_, err = svc.MarkAsReady(ctx, sheetID, teacher)
	require.NoError(t, err)

	// TEACHER_READY is not enough; the instructor has to request first.
	_, err = svc.SendToInstructor(ctx, sheetID, teacher)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, models.AttendanceTeacherReady, appErr.Details["currentStatus"])
}

func TestAttendanceReturnForCorrection(t *testing.T) {
	_, svc := newAttendanceFixture(t)
	ctx := context.Background()

	detail, err := svc.Open(ctx, dto.OpenAttendanceRequest{EducationID: "edu-1", Grade: "2", ClassName: "4", TeacherName: "Choi"}, teacher)
	require.NoError(t, err)
	sheetID := detail.Sheet.ID
	_, err = svc.AddStudent(ctx, sheetID, dto.AddStudentRequest{Number: 1, Name: "Minji"}, teacher)
	require.NoError(t, err)
	_, err = svc.MarkAsReady(ctx, sheetID, teacher)
	require.NoError(t, err)
	_, err = svc.RequestFromInstructor(ctx, sheetID, instructor)
	require.NoError(t, err)
	_, err = svc.SendToInstructor(ctx, sheetID, teacher)
	require.NoError(t, err)

	detail, err = svc.ReturnToTeacher(ctx, sheetID, instructor)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceReturnedToTeacher, detail.Sheet.Status)

	// The returned sheet is editable again and can be re-submitted.
	_, err = svc.AddStudent(ctx, sheetID, dto.AddStudentRequest{Number: 2, Name: "Junho"}, teacher)
	require.NoError(t, err)
	detail, err = svc.MarkAsReady(ctx, sheetID, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceTeacherReady, detail.Sheet.Status)
}

func TestAttendanceFinalizedSheetIsImmutable(t *testing.T) {
	repo, svc := newAttendanceFixture(t)
	ctx := context.Background()

	detail, err := svc.Open(ctx, dto.OpenAttendanceRequest{EducationID: "edu-1", Grade: "5", ClassName: "1", TeacherName: "Choi"}, teacher)
	require.NoError(t, err)
	sheetID := detail.Sheet.ID
	sheet := repo.sheets[sheetID]
	sheet.Status = models.AttendanceAdminFinalized
	repo.sheets[sheetID] = sheet

	_, err = svc.AddStudent(ctx, sheetID, dto.AddStudentRequest{Number: 1, Name: "Minji"}, teacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkAsReady(ctx, sheetID, teacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestAttendanceExportRoster(t *testing.T) {
	repo, svc := newAttendanceFixture(t)
	ctx := context.Background()

	detail, err := svc.Open(ctx, dto.OpenAttendanceRequest{EducationID: "edu-1", Grade: "3", ClassName: "2", TeacherName: "Choi"}, teacher)
	require.NoError(t, err)
	sheetID := detail.Sheet.ID
	_, err = svc.AddStudent(ctx, sheetID, dto.AddStudentRequest{Number: 1, Name: "Minji"}, teacher)
	require.NoError(t, err)

	// Not finalized yet.
	_, _, err = svc.ExportRoster(ctx, sheetID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	sheet := repo.sheets[sheetID]
	sheet.Status = models.AttendanceAdminFinalized
	repo.sheets[sheetID] = sheet

	data, filename, err := svc.ExportRoster(ctx, sheetID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, filename, sheetID)
}
