package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

func newTrigger(repo *mockEducationRepo, machine statusTransitioner) *ActivationTrigger {
	return NewActivationTrigger(repo, machine, nil, zap.NewNop(), time.Second, 100)
}

func TestActivationTriggerOpensAndCloses(t *testing.T) {
	repo := newMockEducationRepo()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	openAt := now.Add(-time.Minute)
	repo.educations["due-open"] = models.Education{
		ID: "due-open", Institution: "한빛초등학교", Status: models.EducationStatusUpcoming, OpenAt: &openAt,
	}
	closeAt := now.Add(-time.Minute)
	repo.educations["due-close"] = models.Education{
		ID: "due-close", Institution: "한빛중학교", Status: models.EducationStatusOpenForApplication, CloseAt: &closeAt,
	}
	future := now.Add(time.Hour)
	repo.educations["not-due"] = models.Education{
		ID: "not-due", Institution: "한빛고등학교", Status: models.EducationStatusUpcoming, OpenAt: &future,
	}

	notifier := &capturingNotifier{}
	machine := newStatusService(repo, notifier)
	trigger := newTrigger(repo, machine)
	trigger.now = func() time.Time { return now }

	fired, err := trigger.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	opened, _ := repo.GetByID(context.Background(), "due-open")
	assert.Equal(t, models.EducationStatusOpenForApplication, opened.Status)
	closed, _ := repo.GetByID(context.Background(), "due-close")
	assert.Equal(t, models.EducationStatusApplicationClosed, closed.Status)
	untouched, _ := repo.GetByID(context.Background(), "not-due")
	assert.Equal(t, models.EducationStatusUpcoming, untouched.Status)

	// Every fired transition is attributed to the SYSTEM actor.
	for _, event := range notifier.events {
		assert.Equal(t, models.SystemActor, event.Actor)
	}
}

func TestActivationTriggerFiresAtMostOnce(t *testing.T) {
	repo := newMockEducationRepo()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	openAt := now.Add(-time.Minute)
	repo.educations["edu-1"] = models.Education{
		ID: "edu-1", Institution: "한빛초등학교", Status: models.EducationStatusUpcoming, OpenAt: &openAt,
	}

	machine := newStatusService(repo, NopNotifier{})
	trigger := newTrigger(repo, machine)
	trigger.now = func() time.Time { return now }

	fired, err := trigger.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// The education left UPCOMING, so the next scan finds nothing due.
	fired, err = trigger.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

// A newly due close on an education the trigger itself just opened must wait
// for a later scan; within one tick each education moves at most one step.
func TestActivationTriggerImmediateCloseAfterOpen(t *testing.T) {
	repo := newMockEducationRepo()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	openAt := now.Add(-2 * time.Hour)
	closeAt := now.Add(-time.Hour)
	repo.educations["edu-1"] = models.Education{
		ID: "edu-1", Institution: "한빛초등학교", Status: models.EducationStatusUpcoming,
		OpenAt: &openAt, CloseAt: &closeAt,
	}

	machine := newStatusService(repo, NopNotifier{})
	trigger := newTrigger(repo, machine)
	trigger.now = func() time.Time { return now }

	// First tick opens, and because the close is already due the same scan
	// picks it up from the fresh listing.
	fired, err := trigger.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	education, _ := repo.GetByID(context.Background(), "edu-1")
	assert.Equal(t, models.EducationStatusApplicationClosed, education.Status)
}

func TestActivationTriggerStartStop(t *testing.T) {
	repo := newMockEducationRepo()
	machine := newStatusService(repo, NopNotifier{})
	trigger := NewActivationTrigger(repo, machine, nil, zap.NewNop(), 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trigger.Start(ctx)
	trigger.Start(ctx) // second start is a no-op
	time.Sleep(30 * time.Millisecond)
	trigger.Stop()
	trigger.Stop() // second stop is a no-op
}
