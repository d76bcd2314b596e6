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
	"github.com/hanbit-edu/workflow-api/internal/repository"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
	"github.com/hanbit-edu/workflow-api/pkg/jobs"
	"github.com/hanbit-edu/workflow-api/pkg/storage"
)

func queueJob(id string) jobs.Job {
	return jobs.Job{ID: id, Type: "settlement", Payload: id}
}

type mockSettlementRepo struct {
	jobs map[string]models.SettlementJob
}

func newMockSettlementRepo() *mockSettlementRepo {
	return &mockSettlementRepo{jobs: make(map[string]models.SettlementJob)}
}

func (m *mockSettlementRepo) Create(ctx context.Context, job *models.SettlementJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockSettlementRepo) GetByID(ctx context.Context, id string) (*models.SettlementJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

func (m *mockSettlementRepo) Update(ctx context.Context, params repository.UpdateSettlementParams) error {
	job, ok := m.jobs[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = params.Status
	if params.ResultPath != nil {
		job.ResultPath = params.ResultPath
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	m.jobs[params.ID] = job
	return nil
}

func (m *mockSettlementRepo) ListQueued(ctx context.Context, limit int) ([]models.SettlementJob, error) {
	out := make([]models.SettlementJob, 0)
	for _, job := range m.jobs {
		if job.Status == models.SettlementQueued {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *mockSettlementRepo) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SettlementJob, error) {
	out := make([]models.SettlementJob, 0)
	for _, job := range m.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	return out, nil
}

func newSettlementFixture(t *testing.T) (*mockSettlementRepo, *mockEducationRepo, *SettlementService) {
	t.Helper()
	repo := newMockSettlementRepo()
	educations := newMockEducationRepo()
	seedEducation(educations, "edu-1", models.EducationStatusCompleted)
	educations.lessons["edu-1"] = []models.Lesson{
		{ID: "l1", EducationID: "edu-1", Session: 1, Date: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), MainRequired: 1},
		{ID: "l2", EducationID: "edu-1", Session: 2, Date: time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC), MainRequired: 1},
	}
	bindings := &mockBindingLister{bindings: map[string][]models.LessonInstructor{
		"edu-1": {
			{LessonID: "l1", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed},
			{LessonID: "l2", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed},
		},
	}}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewSettlementService(repo, educations, bindings, NewFeePolicy("STATUS_BASED"), store, signer, nil, validator.New(), zap.NewNop(), SettlementConfig{})
	return repo, educations, svc
}

func TestSettlementRequestValidation(t *testing.T) {
	_, _, svc := newSettlementFixture(t)
	actor := models.Actor{ID: "admin-1", Role: models.RoleAdmin}

	_, err := svc.Request(context.Background(), dto.CreateSettlementRequest{Month: "2026/09", Format: models.SettlementFormatCSV}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Request(context.Background(), dto.CreateSettlementRequest{Month: "2026-09", Format: "xlsx"}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSettlementProcessRendersStatement(t *testing.T) {
	repo, _, svc := newSettlementFixture(t)
	ctx := context.Background()
	repo.jobs["job-1"] = models.SettlementJob{
		ID: "job-1", Month: "2026-09", Format: models.SettlementFormatCSV,
		Status: models.SettlementQueued, RequestedBy: "admin-1",
	}

	require.NoError(t, svc.process(ctx, queueJob("job-1")))

	job := repo.jobs["job-1"]
	assert.Equal(t, models.SettlementDone, job.Status)
	require.NotNil(t, job.ResultPath)
	assert.Equal(t, "2026-09/job-1.csv", *job.ResultPath)
	require.NotNil(t, job.ResultURL)
	assert.Contains(t, *job.ResultURL, "/api/v1/settlements/job-1/download?token=")
	require.NotNil(t, job.FinishedAt)

	// Only the September lesson earns: one confirmed main session at the
	// elementary rate.
	dataset, err := svc.buildStatement(ctx, &job)
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "40000", dataset.Rows[0]["Amount"])
	assert.Equal(t, "1", dataset.Rows[0]["Sessions"])
	assert.Equal(t, "40000", dataset.Footer["Amount"])
}

func TestSettlementDownloadRequiresValidToken(t *testing.T) {
	repo, _, svc := newSettlementFixture(t)
	ctx := context.Background()
	repo.jobs["job-1"] = models.SettlementJob{
		ID: "job-1", Month: "2026-09", Format: models.SettlementFormatCSV,
		Status: models.SettlementQueued, RequestedBy: "admin-1",
	}
	require.NoError(t, svc.process(ctx, queueJob("job-1")))
	job := repo.jobs["job-1"]

	_, _, err := svc.Download(ctx, "job-1", "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	token, _, err := svc.signer.Generate("job-1", *job.ResultPath)
	require.NoError(t, err)
	file, filename, err := svc.Download(ctx, "job-1", token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "settlement-2026-09.csv", filename)

	// A token minted for one job does not open another.
	_, _, err = svc.Download(ctx, "job-2", token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
