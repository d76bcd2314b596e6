package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/pkg/export"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

type attendanceRepository interface {
	CreateIfAbsent(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceSheet, error)
	GetByID(ctx context.Context, id string) (*models.AttendanceSheet, error)
	TransitionStatus(ctx context.Context, sheetID string, from, to models.AttendanceStatus, actor models.Actor) error
	ListTransitions(ctx context.Context, sheetID string) ([]models.AttendanceTransition, error)
	AddStudent(ctx context.Context, student *models.AttendanceStudent) error
	ListStudents(ctx context.Context, sheetID string) ([]models.AttendanceStudent, error)
	CountStudents(ctx context.Context, sheetID string) (int, error)
}

type attendanceEducationReader interface {
	GetByID(ctx context.Context, id string) (*models.Education, error)
}

// rosterExporter renders the finalized sheet for download.
type rosterExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// AttendanceService drives the per-class attendance document between school
// teacher, instructor, and administrator. Every move pairs a guarded status
// swap with an appended history row, so the document can never lose track of
// who touched it last.
type AttendanceService struct {
	repo       attendanceRepository
	educations attendanceEducationReader
	exporter   rosterExporter
	notifier   Notifier
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, educations attendanceEducationReader, exporter rosterExporter, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AttendanceService{
		repo:       repo,
		educations: educations,
		exporter:   exporter,
		notifier:   notifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Open creates the sheet for a class or returns the existing one. The sheet
// id is derived from (education, grade, class), so repeated opens are
// idempotent and never fork a second document for the same class.
func (s *AttendanceService) Open(ctx context.Context, req dto.OpenAttendanceRequest, actor models.Actor) (*models.AttendanceDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	education, err := s.educations.GetByID(ctx, req.EducationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}

	sheet := &models.AttendanceSheet{
		ID:              models.AttendanceSheetID(req.EducationID, req.Grade, req.ClassName),
		EducationID:     req.EducationID,
		InstitutionName: education.Institution,
		Grade:           req.Grade,
		ClassName:       req.ClassName,
		TeacherName:     req.TeacherName,
		Status:          models.AttendanceTeacherDraft,
	}
	stored, err := s.repo.CreateIfAbsent(ctx, sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attendance sheet")
	}
	s.logger.Info("attendance sheet opened",
		zap.String("sheet_id", stored.ID),
		zap.String("education_id", stored.EducationID),
		zap.String("grade", stored.Grade),
		zap.String("class", stored.ClassName))
	return s.detail(ctx, stored)
}

// Get returns one sheet with students and history.
func (s *AttendanceService) Get(ctx context.Context, sheetID string) (*models.AttendanceDetail, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, sheet)
}

// AddStudent appends one student row. Only allowed while the document sits
// with the teacher.
func (s *AttendanceService) AddStudent(ctx context.Context, sheetID string, req dto.AddStudentRequest, actor models.Actor) (*models.AttendanceDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if !editableByTeacher(sheet.Status) {
		return nil, s.stateError(sheet, "sheet is not editable in its current state")
	}
	student := &models.AttendanceStudent{
		SheetID: sheet.ID,
		Number:  req.Number,
		Name:    req.Name,
		Note:    req.Note,
	}
	if err := s.repo.AddStudent(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student")
	}
	return s.detail(ctx, sheet)
}

// MarkAsReady validates completeness and moves the draft to TEACHER_READY.
// The error names every missing field so the teacher can fix the document in
// one pass instead of replaying failures.
func (s *AttendanceService) MarkAsReady(ctx context.Context, sheetID string, actor models.Actor) (*models.AttendanceDetail, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if !editableByTeacher(sheet.Status) {
		return nil, s.stateError(sheet, "only a draft sheet can be marked ready")
	}

	missing := make([]string, 0, 4)
	if sheet.Grade == "" {
		missing = append(missing, "grade")
	}
	if sheet.ClassName == "" {
		missing = append(missing, "className")
	}
	if sheet.TeacherName == "" {
		missing = append(missing, "teacherName")
	}
	count, err := s.repo.CountStudents(ctx, sheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if count == 0 {
		missing = append(missing, "students")
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "attendance sheet is incomplete"),
			map[string]interface{}{"attendanceId": sheetID, "missing": missing})
	}

	return s.transition(ctx, sheet, models.AttendanceTeacherReady, actor)
}

// RequestFromInstructor records that the instructor asked for the sheet.
func (s *AttendanceService) RequestFromInstructor(ctx context.Context, sheetID string, actor models.Actor) (*models.AttendanceDetail, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != models.AttendanceTeacherReady {
		return nil, s.stateError(sheet, "sheet must be marked ready before an instructor can request it")
	}
	return s.transition(ctx, sheet, models.AttendanceInstructorRequested, actor)
}

// SendToInstructor hands the requested sheet over to the instructor.
func (s *AttendanceService) SendToInstructor(ctx context.Context, sheetID string, actor models.Actor) (*models.AttendanceDetail, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != models.AttendanceInstructorRequested {
		return nil, s.stateError(sheet, "sheet has not been requested by an instructor")
	}
	return s.transition(ctx, sheet, models.AttendanceSentToInstructor, actor)
}

// ReturnToTeacher sends the sheet back for correction.
func (s *AttendanceService) ReturnToTeacher(ctx context.Context, sheetID string, actor models.Actor) (*models.AttendanceDetail, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != models.AttendanceSentToInstructor {
		return nil, s.stateError(sheet, "only a sheet held by the instructor can be returned")
	}
	return s.transition(ctx, sheet, models.AttendanceReturnedToTeacher, actor)
}

// Finalize closes the document. Finalized sheets accept no further changes.
func (s *AttendanceService) Finalize(ctx context.Context, sheetID string, actor models.Actor) (*models.AttendanceDetail, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != models.AttendanceSentToInstructor {
		return nil, s.stateError(sheet, "only a sheet held by the instructor can be finalized")
	}
	return s.transition(ctx, sheet, models.AttendanceAdminFinalized, actor)
}

// ExportRoster renders the finalized sheet as a PDF roster.
func (s *AttendanceService) ExportRoster(ctx context.Context, sheetID string) ([]byte, string, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, "", err
	}
	if sheet.Status != models.AttendanceAdminFinalized {
		return nil, "", s.stateError(sheet, "only a finalized sheet can be exported")
	}
	students, err := s.repo.ListStudents(ctx, sheetID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	dataset := export.Dataset{
		Headers: []string{"No", "Name", "Note"},
		Rows:    make([]map[string]string, 0, len(students)),
	}
	for _, student := range students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"No":   fmt.Sprintf("%d", student.Number),
			"Name": student.Name,
			"Note": student.Note,
		})
	}
	title := fmt.Sprintf("%s %s-%s attendance", sheet.InstitutionName, sheet.Grade, sheet.ClassName)
	data, err := s.exporter.Render(dataset, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	filename := fmt.Sprintf("attendance-%s.pdf", sheet.ID)
	return data, filename, nil
}

func (s *AttendanceService) transition(ctx context.Context, sheet *models.AttendanceSheet, to models.AttendanceStatus, actor models.Actor) (*models.AttendanceDetail, error) {
	from := sheet.Status
	if err := s.repo.TransitionStatus(ctx, sheet.ID, from, to, actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race: re-read so the caller sees who moved it first.
			if current, readErr := s.repo.GetByID(ctx, sheet.ID); readErr == nil {
				return nil, s.stateError(current, "sheet changed state concurrently")
			}
			return nil, s.stateError(sheet, "sheet changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition attendance sheet")
	}
	sheet.Status = to
	sheet.UpdatedAt = time.Now().UTC()

	s.metrics.ObserveAttendanceTransition(to)
	s.notifier.Publish(ctx, models.WorkflowEvent{
		Type:     models.EventAttendanceStatusChanged,
		EntityID: sheet.ID,
		From:     string(from),
		To:       string(to),
		Actor:    actor,
		At:       sheet.UpdatedAt,
	})
	s.logger.Info("attendance status changed",
		zap.String("sheet_id", sheet.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_role", string(actor.Role)))
	return s.detail(ctx, sheet)
}

func (s *AttendanceService) detail(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceDetail, error) {
	students, err := s.repo.ListStudents(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	history, err := s.repo.ListTransitions(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return &models.AttendanceDetail{Sheet: *sheet, Students: students, History: history}, nil
}

func (s *AttendanceService) loadSheet(ctx context.Context, sheetID string) (*models.AttendanceSheet, error) {
	sheet, err := s.repo.GetByID(ctx, sheetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance sheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance sheet")
	}
	return sheet, nil
}

func (s *AttendanceService) stateError(sheet *models.AttendanceSheet, message string) *appErrors.Error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrInvalidState, message),
		map[string]interface{}{
			"attendanceId":  sheet.ID,
			"currentStatus": sheet.Status,
		})
}

// editableByTeacher reports document states in which the teacher may still
// modify content: the initial draft and a sheet returned for correction.
func editableByTeacher(status models.AttendanceStatus) bool {
	return status == models.AttendanceTeacherDraft || status == models.AttendanceReturnedToTeacher
}
