package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/repository"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

type assignmentRepository interface {
	AssignBatch(ctx context.Context, params repository.AssignBatchParams) error
	Confirm(ctx context.Context, lesson *models.Lesson, instructorID string, monthlyLimit int) error
	Delete(ctx context.Context, lessonID, instructorID string) error
	ListByEducation(ctx context.Context, educationID string) ([]models.LessonInstructor, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.LessonInstructor, error)
}

type assignmentEducationReader interface {
	GetByID(ctx context.Context, id string) (*models.Education, error)
	ListLessons(ctx context.Context, educationID string) ([]models.Lesson, error)
	GetLessonBySession(ctx context.Context, educationID string, session int) (*models.Lesson, error)
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// AssignmentOverview is the per-education read model of the matcher.
type AssignmentOverview struct {
	EducationID      string                    `json:"educationId"`
	AssignmentStatus models.AssignmentStatus   `json:"assignmentStatus"`
	Bindings         []models.LessonInstructor `json:"bindings"`
}

// AssignmentService binds instructors to lessons and enforces monthly
// capacity limits. All capacity checks happen inside the repository's
// instructor-locked transactions; this layer resolves targets, maps
// outcomes to the error taxonomy, and emits change events.
type AssignmentService struct {
	repo        assignmentRepository
	educations  assignmentEducationReader
	instructors instructorReader
	notifier    Notifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, educations assignmentEducationReader, instructors instructorReader, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AssignmentService{
		repo:        repo,
		educations:  educations,
		instructors: instructors,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Assign binds an instructor to the targeted lessons of an education with
// APPLIED status. FULL mode targets every lesson, PARTIAL the named
// sessions. The batch is all-or-nothing: when any new session would exceed
// the instructor's monthly limit, no binding is written. Lessons already
// holding the instructor are skipped, which makes repeated identical calls
// idempotent.
func (s *AssignmentService) Assign(ctx context.Context, educationID string, req dto.AssignInstructorRequest, actor models.Actor) (*AssignmentOverview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assign payload")
	}
	if req.Role != models.RoleMain && req.Role != models.RoleAssistant {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown instructor role")
	}
	if req.Mode != models.AssignmentModeFull && req.Mode != models.AssignmentModePartial {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assignment mode")
	}
	if req.Mode == models.AssignmentModePartial && len(req.Sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "partial assignment requires at least one session")
	}

	if _, err := s.educations.GetByID(ctx, educationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}

	instructor, err := s.loadInstructor(ctx, req.InstructorID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.resolveTargets(ctx, educationID, req.Mode, req.Sessions)
	if err != nil {
		return nil, err
	}

	params := repository.AssignBatchParams{
		InstructorID:   instructor.ID,
		InstructorName: instructor.Name,
		Role:           req.Role,
		Lessons:        lessons,
		MonthlyLimit:   monthlyLimitFor(instructor, req.Role),
	}
	if err := s.repo.AssignBatch(ctx, params); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrCapacityExceeded, "monthly session limit exceeded"),
				map[string]interface{}{
					"instructorId": instructor.ID,
					"role":         req.Role,
					"monthlyLimit": params.MonthlyLimit,
				})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign instructor")
	}

	s.metrics.ObserveAssignment("assign", req.Role)
	s.publishChange(ctx, educationID, actor)
	s.logger.Info("instructor assigned",
		zap.String("education_id", educationID),
		zap.String("instructor_id", instructor.ID),
		zap.String("role", string(req.Role)),
		zap.String("mode", string(req.Mode)))
	return s.Overview(ctx, educationID)
}

// Confirm flips one binding to CONFIRMED. The binding must exist; capacity
// is re-checked under the instructor lock because confirmation, not
// application, is what consumes a monthly slot. Confirming an already
// confirmed binding is a no-op.
func (s *AssignmentService) Confirm(ctx context.Context, educationID string, req dto.ConfirmInstructorRequest, actor models.Actor) (*AssignmentOverview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm payload")
	}
	lesson, err := s.loadLesson(ctx, educationID, req.Session)
	if err != nil {
		return nil, err
	}
	instructor, err := s.loadInstructor(ctx, req.InstructorID)
	if err != nil {
		return nil, err
	}

	var role models.InstructorRole
	bindings, err := s.repo.ListByEducation(ctx, educationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}
	for _, b := range bindings {
		if b.LessonID == lesson.ID && b.InstructorID == instructor.ID {
			role = b.Role
			break
		}
	}
	if role == "" {
		return nil, s.notAssignedError(educationID, req.Session, instructor.ID)
	}

	if err := s.repo.Confirm(ctx, lesson, instructor.ID, monthlyLimitFor(instructor, role)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.notAssignedError(educationID, req.Session, instructor.ID)
		}
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrCapacityExceeded, "monthly session limit exceeded"),
				map[string]interface{}{"instructorId": instructor.ID, "role": role})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm binding")
	}

	s.metrics.ObserveAssignment("confirm", role)
	s.publishChange(ctx, educationID, actor)
	s.logger.Info("instructor confirmed",
		zap.String("education_id", educationID),
		zap.String("instructor_id", instructor.ID),
		zap.Int("session", req.Session))
	return s.Overview(ctx, educationID)
}

// Remove deletes one binding. The instructor must currently hold it.
func (s *AssignmentService) Remove(ctx context.Context, educationID string, req dto.RemoveInstructorRequest, actor models.Actor) (*AssignmentOverview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove payload")
	}
	lesson, err := s.loadLesson(ctx, educationID, req.Session)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, lesson.ID, req.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.notAssignedError(educationID, req.Session, req.InstructorID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove binding")
	}

	s.metrics.ObserveAssignment("remove", "")
	s.publishChange(ctx, educationID, actor)
	s.logger.Info("instructor removed",
		zap.String("education_id", educationID),
		zap.String("instructor_id", req.InstructorID),
		zap.Int("session", req.Session))
	return s.Overview(ctx, educationID)
}

// Overview returns an education's bindings with the derived status.
func (s *AssignmentService) Overview(ctx context.Context, educationID string) (*AssignmentOverview, error) {
	lessons, err := s.educations.ListLessons(ctx, educationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	bindings, err := s.repo.ListByEducation(ctx, educationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}
	return &AssignmentOverview{
		EducationID:      educationID,
		AssignmentStatus: models.DeriveAssignmentStatus(lessons, bindings),
		Bindings:         bindings,
	}, nil
}

// ListByInstructor returns an instructor's bindings across educations.
func (s *AssignmentService) ListByInstructor(ctx context.Context, instructorID string) ([]models.LessonInstructor, error) {
	bindings, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor bindings")
	}
	return bindings, nil
}

func (s *AssignmentService) loadInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if !instructor.Active {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidState, "instructor is not active"),
			map[string]interface{}{"instructorId": id})
	}
	return instructor, nil
}

func (s *AssignmentService) loadLesson(ctx context.Context, educationID string, session int) (*models.Lesson, error) {
	lesson, err := s.educations.GetLessonBySession(ctx, educationID, session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrNotFound, "lesson session not found"),
				map[string]interface{}{"educationId": educationID, "session": session})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

func (s *AssignmentService) resolveTargets(ctx context.Context, educationID string, mode models.AssignmentMode, sessions []int) ([]models.Lesson, error) {
	all, err := s.educations.ListLessons(ctx, educationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if mode == models.AssignmentModeFull {
		return all, nil
	}
	bySession := make(map[int]models.Lesson, len(all))
	for _, lesson := range all {
		bySession[lesson.Session] = lesson
	}
	targets := make([]models.Lesson, 0, len(sessions))
	seen := make(map[int]struct{}, len(sessions))
	for _, session := range sessions {
		if _, dup := seen[session]; dup {
			continue
		}
		seen[session] = struct{}{}
		lesson, ok := bySession[session]
		if !ok {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrNotFound, "lesson session not found"),
				map[string]interface{}{"educationId": educationID, "session": session})
		}
		targets = append(targets, lesson)
	}
	return targets, nil
}

func (s *AssignmentService) notAssignedError(educationID string, session int, instructorID string) *appErrors.Error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrNotAssigned, "instructor is not assigned to this lesson"),
		map[string]interface{}{
			"educationId":  educationID,
			"session":      session,
			"instructorId": instructorID,
		})
}

func (s *AssignmentService) publishChange(ctx context.Context, educationID string, actor models.Actor) {
	s.notifier.Publish(ctx, models.WorkflowEvent{
		Type:     models.EventAssignmentChanged,
		EntityID: educationID,
		Actor:    actor,
		At:       time.Now().UTC(),
	})
}

func monthlyLimitFor(instructor *models.Instructor, role models.InstructorRole) int {
	if role == models.RoleAssistant {
		return instructor.MonthlyAssistantMaxSessions
	}
	return instructor.MonthlyLeadMaxSessions
}
