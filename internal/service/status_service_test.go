package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

// mockEducationRepo backs the status machine with an in-memory store whose
// UpdateStatus performs the same compare-and-swap the SQL layer does.
type mockEducationRepo struct {
	mu         sync.Mutex
	educations map[string]models.Education
	lessons    map[string][]models.Lesson
}

func newMockEducationRepo() *mockEducationRepo {
	return &mockEducationRepo{
		educations: make(map[string]models.Education),
		lessons:    make(map[string][]models.Lesson),
	}
}

func (m *mockEducationRepo) Create(ctx context.Context, education *models.Education, lessons []models.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if education.ID == "" {
		education.ID = "edu-generated"
	}
	m.educations[education.ID] = *education
	m.lessons[education.ID] = lessons
	return nil
}

func (m *mockEducationRepo) GetByID(ctx context.Context, id string) (*models.Education, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	education, ok := m.educations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &education, nil
}

func (m *mockEducationRepo) List(ctx context.Context, filter models.EducationFilter) ([]models.Education, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Education, 0, len(m.educations))
	for _, education := range m.educations {
		if filter.Status != "" && education.Status != filter.Status {
			continue
		}
		if filter.Region != "" && education.Region != filter.Region {
			continue
		}
		out = append(out, education)
	}
	return out, nil
}

func (m *mockEducationRepo) UpdateStatus(ctx context.Context, id string, from, to models.EducationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	education, ok := m.educations[id]
	if !ok || education.Status != from {
		return sql.ErrNoRows
	}
	education.Status = to
	m.educations[id] = education
	return nil
}

func (m *mockEducationRepo) UpdateActivation(ctx context.Context, id string, openAt, closeAt *time.Time, restriction models.ApplicationRestriction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	education, ok := m.educations[id]
	if !ok {
		return sql.ErrNoRows
	}
	education.OpenAt = openAt
	education.CloseAt = closeAt
	education.Restriction = restriction
	m.educations[id] = education
	return nil
}

func (m *mockEducationRepo) ListDueForOpen(ctx context.Context, now time.Time, limit int) ([]models.Education, error) {
	return m.listDue(models.EducationStatusUpcoming, now, true), nil
}

func (m *mockEducationRepo) ListDueForClose(ctx context.Context, now time.Time, limit int) ([]models.Education, error) {
	return m.listDue(models.EducationStatusOpenForApplication, now, false), nil
}

func (m *mockEducationRepo) listDue(status models.EducationStatus, now time.Time, open bool) []models.Education {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Education, 0)
	for _, education := range m.educations {
		if education.Status != status {
			continue
		}
		at := education.CloseAt
		if open {
			at = education.OpenAt
		}
		if at != nil && !at.After(now) {
			out = append(out, education)
		}
	}
	return out
}

func (m *mockEducationRepo) ListLessons(ctx context.Context, educationID string) ([]models.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lessons[educationID], nil
}

func (m *mockEducationRepo) GetLessonBySession(ctx context.Context, educationID string, session int) (*models.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lesson := range m.lessons[educationID] {
		if lesson.Session == session {
			return &lesson, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockBindingLister struct {
	bindings map[string][]models.LessonInstructor
}

func (m *mockBindingLister) ListByEducation(ctx context.Context, educationID string) ([]models.LessonInstructor, error) {
	return m.bindings[educationID], nil
}

type capturingNotifier struct {
	mu     sync.Mutex
	events []models.WorkflowEvent
}

func (n *capturingNotifier) Publish(ctx context.Context, event models.WorkflowEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func newStatusService(repo *mockEducationRepo, notifier Notifier) *StatusService {
	return NewStatusService(repo, &mockBindingLister{}, notifier, nil, validator.New(), zap.NewNop())
}

func seedEducation(repo *mockEducationRepo, id string, status models.EducationStatus) {
	repo.educations[id] = models.Education{
		ID:          id,
		Name:        "Coding Basics",
		Institution: "한빛초등학교",
		Region:      "Seoul",
		Status:      status,
	}
}

func TestStatusServiceTransitionForward(t *testing.T) {
	repo := newMockEducationRepo()
	seedEducation(repo, "edu-1", models.EducationStatusPending)
	notifier := &capturingNotifier{}
	svc := newStatusService(repo, notifier)

	education, err := svc.Transition(context.Background(), "edu-1", models.EducationStatusUpcoming, models.Actor{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.EducationStatusUpcoming, education.Status)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, models.EventStatusChanged, notifier.events[0].Type)
	assert.Equal(t, string(models.EducationStatusPending), notifier.events[0].From)
	assert.Equal(t, string(models.EducationStatusUpcoming), notifier.events[0].To)
}

func TestStatusServiceTransitionRejectsSkipsAndBackwards(t *testing.T) {
	repo := newMockEducationRepo()
	seedEducation(repo, "edu-1", models.EducationStatusUpcoming)
	svc := newStatusService(repo, NopNotifier{})

	_, err := svc.Transition(context.Background(), "edu-1", models.EducationStatusConfirmed, models.Actor{Role: models.RoleAdmin})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, models.EducationStatusUpcoming, appErr.Details["currentStatus"])
	assert.Equal(t, models.EducationStatusConfirmed, appErr.Details["targetStatus"])

	_, err = svc.Transition(context.Background(), "edu-1", models.EducationStatusPending, models.Actor{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	// Stored status did not move.
	stored, err := repo.GetByID(context.Background(), "edu-1")
	require.NoError(t, err)
	assert.Equal(t, models.EducationStatusUpcoming, stored.Status)
}

func TestStatusServiceCancelRules(t *testing.T) {
	repo := newMockEducationRepo()
	seedEducation(repo, "running", models.EducationStatusInProgress)
	seedEducation(repo, "done", models.EducationStatusCompleted)
	svc := newStatusService(repo, NopNotifier{})

	education, err := svc.Transition(context.Background(), "running", models.EducationStatusCanceled, models.Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.EducationStatusCanceled, education.Status)

	_, err = svc.Transition(context.Background(), "done", models.EducationStatusCanceled, models.Actor{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	// CANCELED is terminal.
	_, err = svc.Transition(context.Background(), "running", models.EducationStatusPending, models.Actor{Role: models.RoleAdmin})
	require.Error(t, err)
}

func TestStatusServiceTransitionSingleWinner(t *testing.T) {
	repo := newMockEducationRepo()
	seedEducation(repo, "edu-1", models.EducationStatusPending)
	svc := newStatusService(repo, NopNotifier{})

	_, first := svc.Transition(context.Background(), "edu-1", models.EducationStatusUpcoming, models.Actor{Role: models.RoleAdmin})
	require.NoError(t, first)

	// A second actor racing for the same step loses and sees the new state.
	_, second := svc.Transition(context.Background(), "edu-1", models.EducationStatusUpcoming, models.Actor{Role: models.RoleAdmin})
	require.Error(t, second)
	appErr := appErrors.FromError(second)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, models.EducationStatusUpcoming, appErr.Details["currentStatus"])
}

func TestStatusServiceCreateValidation(t *testing.T) {
	repo := newMockEducationRepo()
	svc := newStatusService(repo, NopNotifier{})
	base := dto.CreateEducationRequest{
		Name:        "Coding Basics",
		Institution: "한빛초등학교",
		Region:      "Seoul",
		PeriodStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		Lessons: []dto.LessonPlanRequest{
			{Session: 1, Date: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), StartTime: "10:00", EndTime: "12:00", MainRequired: 1, AssistantRequired: 1},
		},
	}

	education, err := svc.Create(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, models.EducationStatusPending, education.Status)
	assert.Equal(t, models.RestrictionAll, education.Restriction)

	dup := base
	dup.Lessons = append([]dto.LessonPlanRequest{}, base.Lessons...)
	dup.Lessons = append(dup.Lessons, base.Lessons[0])
	_, err = svc.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	reversed := base
	reversed.PeriodEnd = base.PeriodStart.AddDate(0, 0, -1)
	_, err = svc.Create(context.Background(), reversed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStatusServiceScheduleActivation(t *testing.T) {
	repo := newMockEducationRepo()
	seedEducation(repo, "edu-1", models.EducationStatusPending)
	seedEducation(repo, "open", models.EducationStatusOpenForApplication)
	svc := newStatusService(repo, NopNotifier{})
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	openAt := now.Add(time.Hour)
	closeAt := now.Add(48 * time.Hour)
	education, err := svc.ScheduleActivation(context.Background(), "edu-1", dto.ScheduleActivationRequest{OpenAt: &openAt, CloseAt: &closeAt})
	require.NoError(t, err)
	require.NotNil(t, education.OpenAt)
	assert.Equal(t, openAt, *education.OpenAt)

	past := now.Add(-time.Minute)
	_, err = svc.ScheduleActivation(context.Background(), "edu-1", dto.ScheduleActivationRequest{OpenAt: &past})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	before := openAt.Add(-time.Minute)
	_, err = svc.ScheduleActivation(context.Background(), "edu-1", dto.ScheduleActivationRequest{OpenAt: &openAt, CloseAt: &before})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// Once the window is entered, scheduling is closed.
	_, err = svc.ScheduleActivation(context.Background(), "open", dto.ScheduleActivationRequest{OpenAt: &openAt})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}
