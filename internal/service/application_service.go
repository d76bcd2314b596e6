package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

type applicationRepository interface {
	Create(ctx context.Context, application *models.InstructorApplication) error
	GetByID(ctx context.Context, id string) (*models.InstructorApplication, error)
	GetByEducationAndInstructor(ctx context.Context, educationID, instructorID string) (*models.InstructorApplication, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.InstructorApplication, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, decidedBy string) error
}

// ApplicationService handles instructor applications and their derived
// final-status views.
type ApplicationService struct {
	repo        applicationRepository
	educations  assignmentEducationReader
	assignments assignmentRepository
	instructors instructorReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationRepository, educations assignmentEducationReader, assignments assignmentRepository, instructors instructorReader, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:        repo,
		educations:  educations,
		assignments: assignments,
		instructors: instructors,
		validator:   validate,
		logger:      logger,
	}
}

// Apply files an application for the calling instructor. Applications are
// only accepted while the education's window is open, and the education's
// restriction limits which role may apply.
func (s *ApplicationService) Apply(ctx context.Context, actor models.Actor, req dto.CreateApplicationRequest) (*models.InstructorApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	if req.Role != models.RoleMain && req.Role != models.RoleAssistant {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown instructor role")
	}

	education, err := s.educations.GetByID(ctx, req.EducationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	if education.Status != models.EducationStatusOpenForApplication {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidState, "education is not open for applications"),
			map[string]interface{}{"educationId": education.ID, "currentStatus": education.Status})
	}
	if (education.Restriction == models.RestrictionMainOnly && req.Role != models.RoleMain) ||
		(education.Restriction == models.RestrictionAssistantOnly && req.Role != models.RoleAssistant) {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "role is not allowed by the application restriction"),
			map[string]interface{}{"restriction": education.Restriction, "role": req.Role})
	}

	instructor, err := s.instructors.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if !instructor.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "instructor is not active")
	}

	if existing, err := s.repo.GetByEducationAndInstructor(ctx, req.EducationID, instructor.ID); err == nil {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrConflict, "instructor already applied to this education"),
			map[string]interface{}{"applicationId": existing.ID})
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}

	application := &models.InstructorApplication{
		EducationID:    req.EducationID,
		InstructorID:   instructor.ID,
		InstructorName: instructor.Name,
		Role:           req.Role,
		Status:         models.ApplicationPending,
	}
	if err := s.repo.Create(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	s.logger.Info("application filed",
		zap.String("application_id", application.ID),
		zap.String("education_id", application.EducationID),
		zap.String("instructor_id", application.InstructorID),
		zap.String("role", string(application.Role)))
	return application, nil
}

// Decide records the administrator decision on a pending application.
// Applications under a COMPLETED education are immutable.
func (s *ApplicationService) Decide(ctx context.Context, id string, req dto.DecideApplicationRequest, admin models.Actor) (*models.InstructorApplication, error) {
	if req.Status != models.ApplicationAccepted && req.Status != models.ApplicationRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be ACCEPTED or REJECTED")
	}
	application, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	education, err := s.educations.GetByID(ctx, application.EducationID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	if education != nil && education.Status == models.EducationStatusCompleted {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidState, "applications of a completed education are immutable"),
			map[string]interface{}{"educationId": education.ID})
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, admin.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrConflict, "application already decided"),
				map[string]interface{}{"applicationId": id, "currentStatus": application.Status})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide application")
	}
	application.Status = req.Status
	application.DecidedBy = &admin.ID
	s.logger.Info("application decided",
		zap.String("application_id", id),
		zap.String("status", string(req.Status)),
		zap.String("decided_by", admin.ID))
	return application, nil
}

// Get returns one application with its derived final status.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ApplicationView, error) {
	application, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	views, err := s.withFinalStatus(ctx, []models.InstructorApplication{*application})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns applications with derived final statuses. Instructors are
// scoped to their own applications by the handler layer.
func (s *ApplicationService) List(ctx context.Context, query dto.ApplicationQuery) ([]models.ApplicationView, error) {
	applications, err := s.repo.List(ctx, models.ApplicationFilter{
		EducationID:  query.EducationID,
		InstructorID: query.InstructorID,
		Status:       query.Status,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return s.withFinalStatus(ctx, applications)
}

// withFinalStatus loads lessons and bindings once per education and derives
// the final status of every application against them.
func (s *ApplicationService) withFinalStatus(ctx context.Context, applications []models.InstructorApplication) ([]models.ApplicationView, error) {
	type educationState struct {
		lessons  []models.Lesson
		bindings []models.LessonInstructor
		status   models.AssignmentStatus
	}
	states := make(map[string]*educationState)

	views := make([]models.ApplicationView, 0, len(applications))
	for _, application := range applications {
		state, ok := states[application.EducationID]
		if !ok {
			lessons, err := s.educations.ListLessons(ctx, application.EducationID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
			}
			bindings, err := s.assignments.ListByEducation(ctx, application.EducationID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
			}
			state = &educationState{
				lessons:  lessons,
				bindings: bindings,
				status:   models.DeriveAssignmentStatus(lessons, bindings),
			}
			states[application.EducationID] = state
		}

		own := make([]models.LessonInstructor, 0, 4)
		for _, b := range state.bindings {
			if b.InstructorID == application.InstructorID {
				own = append(own, b)
			}
		}
		views = append(views, models.ApplicationView{
			InstructorApplication: application,
			FinalStatus:           models.DeriveFinalStatus(application, own, state.status),
		})
	}
	return views, nil
}
