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
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

type educationRepository interface {
	Create(ctx context.Context, education *models.Education, lessons []models.Lesson) error
	GetByID(ctx context.Context, id string) (*models.Education, error)
	List(ctx context.Context, filter models.EducationFilter) ([]models.Education, error)
	UpdateStatus(ctx context.Context, id string, from, to models.EducationStatus) error
	UpdateActivation(ctx context.Context, id string, openAt, closeAt *time.Time, restriction models.ApplicationRestriction) error
	ListLessons(ctx context.Context, educationID string) ([]models.Lesson, error)
}

type educationBindingLister interface {
	ListByEducation(ctx context.Context, educationID string) ([]models.LessonInstructor, error)
}

// StatusService owns the education lifecycle: registration, the forward-only
// status machine, and activation scheduling.
type StatusService struct {
	repo      educationRepository
	bindings  educationBindingLister
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatusService constructs the service.
func NewStatusService(repo educationRepository, bindings educationBindingLister, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StatusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &StatusService{
		repo:      repo,
		bindings:  bindings,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers an education with its lesson plan in PENDING status.
func (s *StatusService) Create(ctx context.Context, req dto.CreateEducationRequest) (*models.Education, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid education payload")
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "periodEnd must not precede periodStart")
	}
	if req.Restriction == "" {
		req.Restriction = models.RestrictionAll
	}
	switch req.Restriction {
	case models.RestrictionAll, models.RestrictionMainOnly, models.RestrictionAssistantOnly:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown application restriction")
	}

	seen := make(map[int]struct{}, len(req.Lessons))
	lessons := make([]models.Lesson, 0, len(req.Lessons))
	for _, plan := range req.Lessons {
		if _, dup := seen[plan.Session]; dup {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation, "duplicate lesson session"),
				map[string]interface{}{"session": plan.Session})
		}
		seen[plan.Session] = struct{}{}
		lessons = append(lessons, models.Lesson{
			Session:           plan.Session,
			Date:              plan.Date,
			StartTime:         plan.StartTime,
			EndTime:           plan.EndTime,
			MainRequired:      plan.MainRequired,
			AssistantRequired: plan.AssistantRequired,
		})
	}

	education := &models.Education{
		Name:        req.Name,
		Institution: req.Institution,
		Region:      req.Region,
		GradeClass:  req.GradeClass,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Restriction: req.Restriction,
		Status:      models.EducationStatusPending,
	}
	if err := s.repo.Create(ctx, education, lessons); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create education")
	}
	s.logger.Info("education created",
		zap.String("education_id", education.ID),
		zap.String("institution", education.Institution))
	return education, nil
}

// Get returns the full read model: education, lessons, bindings, and the
// derived assignment status.
func (s *StatusService) Get(ctx context.Context, id string) (*models.EducationDetail, error) {
	education, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	lessons, err := s.repo.ListLessons(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	bindings, err := s.bindings.ListByEducation(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}
	return &models.EducationDetail{
		Education:        *education,
		Lessons:          lessons,
		Bindings:         bindings,
		AssignmentStatus: models.DeriveAssignmentStatus(lessons, bindings),
	}, nil
}

// List returns educations matching the query.
func (s *StatusService) List(ctx context.Context, query dto.EducationQuery) ([]models.Education, *models.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	filter := models.EducationFilter{
		Status: query.Status,
		Region: query.Region,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	educations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list educations")
	}
	pagination := &models.Pagination{Page: page, PerPage: limit, Total: len(educations)}
	return educations, pagination, nil
}

// Transition moves an education to the target status. Only the immediate
// successor or CANCELED is legal; the swap is compare-and-swap guarded, so
// concurrent callers racing for the same step see exactly one winner.
func (s *StatusService) Transition(ctx context.Context, id string, target models.EducationStatus, actor models.Actor) (*models.Education, error) {
	if !models.IsValidEducationStatus(target) {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unknown education status"),
			map[string]interface{}{"targetStatus": target})
	}
	education, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	if !models.CanTransitionEducation(education.Status, target) {
		return nil, s.transitionError(education, target)
	}

	from := education.Status
	if err := s.repo.UpdateStatus(ctx, id, from, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race: someone else moved the education first.
			// Re-read so the caller sees the state that beat them.
			if current, readErr := s.repo.GetByID(ctx, id); readErr == nil {
				return nil, s.transitionError(current, target)
			}
			return nil, s.transitionError(education, target)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	education.Status = target
	education.UpdatedAt = s.now().UTC()
	s.metrics.ObserveTransition(from, target, actor.Role)
	s.notifier.Publish(ctx, models.WorkflowEvent{
		Type:     models.EventStatusChanged,
		EntityID: id,
		From:     string(from),
		To:       string(target),
		Actor:    actor,
		At:       education.UpdatedAt,
	})
	s.logger.Info("education status changed",
		zap.String("education_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_role", string(actor.Role)))
	return education, nil
}

// Advance moves an education one step forward along the lifecycle.
func (s *StatusService) Advance(ctx context.Context, id string, actor models.Actor) (*models.Education, error) {
	education, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	next := models.NextEducationStatus(education.Status)
	if next == "" {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidTransition, "education status is terminal"),
			map[string]interface{}{"educationId": id, "currentStatus": education.Status})
	}
	return s.Transition(ctx, id, next, actor)
}

// ScheduleActivation sets or replaces the activation window. Timestamps must
// lie in the future at the time they are set, and scheduling is only allowed
// before the application window has been entered.
func (s *StatusService) ScheduleActivation(ctx context.Context, id string, req dto.ScheduleActivationRequest) (*models.Education, error) {
	education, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	if education.Status != models.EducationStatusPending && education.Status != models.EducationStatusUpcoming {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidState, "activation can only be scheduled before the application window"),
			map[string]interface{}{"educationId": id, "currentStatus": education.Status})
	}

	now := s.now().UTC()
	if req.OpenAt != nil && !req.OpenAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "openAt must be in the future")
	}
	if req.CloseAt != nil && !req.CloseAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "closeAt must be in the future")
	}
	if req.OpenAt != nil && req.CloseAt != nil && req.CloseAt.Before(*req.OpenAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "closeAt must not precede openAt")
	}

	restriction := req.Restriction
	if restriction == "" {
		restriction = education.Restriction
	}
	switch restriction {
	case models.RestrictionAll, models.RestrictionMainOnly, models.RestrictionAssistantOnly:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown application restriction")
	}

	if err := s.repo.UpdateActivation(ctx, id, req.OpenAt, req.CloseAt, restriction); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule activation")
	}
	education.OpenAt = req.OpenAt
	education.CloseAt = req.CloseAt
	education.Restriction = restriction
	s.logger.Info("activation scheduled",
		zap.String("education_id", id),
		zap.Timep("open_at", req.OpenAt),
		zap.Timep("close_at", req.CloseAt))
	return education, nil
}

func (s *StatusService) transitionError(education *models.Education, target models.EducationStatus) *appErrors.Error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrInvalidTransition, "illegal status transition"),
		map[string]interface{}{
			"educationId":   education.ID,
			"currentStatus": education.Status,
			"targetStatus":  target,
		})
}
