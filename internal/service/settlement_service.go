package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/dto"
	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/repository"
	"github.com/hanbit-edu/workflow-api/pkg/export"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
	"github.com/hanbit-edu/workflow-api/pkg/jobs"
	"github.com/hanbit-edu/workflow-api/pkg/storage"
)

type settlementRepository interface {
	Create(ctx context.Context, job *models.SettlementJob) error
	GetByID(ctx context.Context, id string) (*models.SettlementJob, error)
	Update(ctx context.Context, params repository.UpdateSettlementParams) error
	ListQueued(ctx context.Context, limit int) ([]models.SettlementJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SettlementJob, error)
}

type settlementEducationLister interface {
	List(ctx context.Context, filter models.EducationFilter) ([]models.Education, error)
	ListLessons(ctx context.Context, educationID string) ([]models.Lesson, error)
}

// SettlementConfig tunes the export worker.
type SettlementConfig struct {
	CleanupInterval   time.Duration
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// SettlementService produces monthly settlement statements asynchronously:
// a request becomes a queued job, a worker renders the per-education fee
// breakdown of the month into CSV or PDF, and the result is served through
// a signed, expiring download URL.
type SettlementService struct {
	repo       settlementRepository
	educations settlementEducationLister
	bindings   feeBindingLister
	policy     models.FeePolicy

	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	cleanupInterval time.Duration
	resultTTL       time.Duration

	mu            sync.Mutex
	cleanupCancel context.CancelFunc
	cleanupDone   chan struct{}
	started       bool
}

// NewSettlementService constructs the service with its own worker queue.
func NewSettlementService(repo settlementRepository, educations settlementEducationLister, bindings feeBindingLister, policy models.FeePolicy, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SettlementConfig) *SettlementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 7 * 24 * time.Hour
	}

	s := &SettlementService{
		repo:            repo,
		educations:      educations,
		bindings:        bindings,
		policy:          policy,
		store:           store,
		signer:          signer,
		csv:             export.NewCSVExporter(),
		pdf:             export.NewPDFExporter(),
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		cleanupInterval: cfg.CleanupInterval,
		resultTTL:       cfg.ResultTTL,
	}
	s.queue = jobs.NewQueue("settlements", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches workers, requeues jobs interrupted by a restart, and starts
// the result cleanup loop.
func (s *SettlementService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cleanupCancel = cancel
	s.cleanupDone = make(chan struct{})
	s.mu.Unlock()

	s.queue.Start(ctx)

	queued, err := s.repo.ListQueued(ctx, 0)
	if err != nil {
		s.logger.Warn("recover queued settlement jobs", zap.Error(err))
	}
	for _, job := range queued {
		if err := s.enqueue(job.ID); err != nil {
			s.logger.Warn("requeue settlement job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	go s.cleanupLoop(cleanupCtx)
}

// Stop drains workers and the cleanup loop.
func (s *SettlementService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cleanupCancel
	done := s.cleanupDone
	s.mu.Unlock()
	cancel()
	<-done
	s.queue.Stop()
}

// Request validates and queues a new settlement statement export.
func (s *SettlementService) Request(ctx context.Context, req dto.CreateSettlementRequest, actor models.Actor) (*models.SettlementJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settlement payload")
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM")
	}
	if req.Format != models.SettlementFormatCSV && req.Format != models.SettlementFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	job := &models.SettlementJob{
		Month:       req.Month,
		Region:      req.Region,
		Format:      req.Format,
		Status:      models.SettlementQueued,
		RequestedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create settlement job")
	}
	if err := s.enqueue(job.ID); err != nil {
		s.markFailed(ctx, job.ID, fmt.Sprintf("enqueue failed: %v", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue settlement job")
	}
	s.logger.Info("settlement job queued",
		zap.String("job_id", job.ID),
		zap.String("month", job.Month),
		zap.String("format", string(job.Format)))
	return job, nil
}

// Get returns one job for polling.
func (s *SettlementService) Get(ctx context.Context, id string) (*models.SettlementJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "settlement job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settlement job")
	}
	return job, nil
}

// Download validates a signed token and opens the rendered statement.
func (s *SettlementService) Download(ctx context.Context, id, token string) (*os.File, string, error) {
	tokenJobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil || tokenJobID != id {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != models.SettlementDone || job.ResultPath == nil || *job.ResultPath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "settlement result not available")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "settlement result expired")
	}
	filename := fmt.Sprintf("settlement-%s.%s", job.Month, job.Format)
	return file, filename, nil
}

func (s *SettlementService) enqueue(jobID string) error {
	return s.queue.Enqueue(jobs.Job{ID: jobID, Type: "settlement", Payload: jobID})
}

// process renders one statement. Errors are returned to the queue for retry;
// the final attempt leaves the job FAILED with the error message recorded.
func (s *SettlementService) process(ctx context.Context, job jobs.Job) error {
	id, _ := job.Payload.(string)
	if id == "" {
		id = job.ID
	}
	stored, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load settlement job %s: %w", id, err)
	}
	if stored.Status == models.SettlementDone {
		return nil
	}
	if err := s.repo.Update(ctx, repository.UpdateSettlementParams{ID: id, Status: models.SettlementProcessing}); err != nil {
		return fmt.Errorf("mark settlement processing: %w", err)
	}

	dataset, err := s.buildStatement(ctx, stored)
	if err != nil {
		s.markFailed(ctx, id, err.Error())
		return err
	}

	var payload []byte
	switch stored.Format {
	case models.SettlementFormatPDF:
		payload, err = s.pdf.Render(*dataset, fmt.Sprintf("Settlement %s", stored.Month))
	default:
		payload, err = s.csv.Render(*dataset)
	}
	if err != nil {
		s.markFailed(ctx, id, err.Error())
		return err
	}

	relPath := fmt.Sprintf("%s/%s.%s", stored.Month, stored.ID, stored.Format)
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.markFailed(ctx, id, err.Error())
		return err
	}
	token, _, err := s.signer.Generate(stored.ID, relPath)
	if err != nil {
		s.markFailed(ctx, id, err.Error())
		return err
	}
	resultURL := fmt.Sprintf("/api/v1/settlements/%s/download?token=%s", stored.ID, token)
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, repository.UpdateSettlementParams{
		ID:         id,
		Status:     models.SettlementDone,
		ResultPath: &relPath,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark settlement done: %w", err)
	}
	s.metrics.ObserveSettlementJob(models.SettlementDone)
	s.logger.Info("settlement statement rendered",
		zap.String("job_id", id),
		zap.String("month", stored.Month),
		zap.String("path", relPath))
	return nil
}

// buildStatement assembles one row per counted education whose lessons fall
// in the job's month, with a grand total footer.
func (s *SettlementService) buildStatement(ctx context.Context, job *models.SettlementJob) (*export.Dataset, error) {
	educations, err := s.educations.List(ctx, models.EducationFilter{Region: job.Region, Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("list educations: %w", err)
	}

	dataset := &export.Dataset{
		Headers: []string{"Education", "Institution", "Category", "Sessions", "Amount"},
		Rows:    make([]map[string]string, 0, len(educations)),
	}
	var grandTotal int64
	for _, education := range educations {
		lessons, err := s.educations.ListLessons(ctx, education.ID)
		if err != nil {
			return nil, fmt.Errorf("list lessons for %s: %w", education.ID, err)
		}
		inMonth := make([]models.Lesson, 0, len(lessons))
		for _, lesson := range lessons {
			if lesson.Date.UTC().Format("2006-01") == job.Month {
				inMonth = append(inMonth, lesson)
			}
		}
		if len(inMonth) == 0 {
			continue
		}
		bindings, err := s.bindings.ListByEducation(ctx, education.ID)
		if err != nil {
			return nil, fmt.Errorf("list bindings for %s: %w", education.ID, err)
		}
		breakdown := FeeFor(&education, inMonth, bindings, s.policy)
		if !breakdown.Counted || breakdown.Total == 0 {
			continue
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Education":   education.Name,
			"Institution": education.Institution,
			"Category":    string(breakdown.Category),
			"Sessions":    fmt.Sprintf("%d", len(inMonth)),
			"Amount":      fmt.Sprintf("%d", breakdown.Total),
		})
		grandTotal += breakdown.Total
	}
	dataset.Footer = map[string]string{
		"Education": "TOTAL",
		"Amount":    fmt.Sprintf("%d", grandTotal),
	}
	return dataset, nil
}

func (s *SettlementService) markFailed(ctx context.Context, id, message string) {
	if err := s.repo.Update(ctx, repository.UpdateSettlementParams{
		ID:           id,
		Status:       models.SettlementFailed,
		ErrorMessage: &message,
	}); err != nil {
		s.logger.Warn("mark settlement failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.ObserveSettlementJob(models.SettlementFailed)
}

// cleanupLoop purges rendered files once their TTL elapses. Jobs keep their
// rows; only the artifact on disk goes away.
func (s *SettlementService) cleanupLoop(ctx context.Context) {
	defer close(s.cleanupDone)
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.resultTTL)
			finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 0)
			if err != nil {
				s.logger.Warn("list expired settlement jobs", zap.Error(err))
				continue
			}
			for _, job := range finished {
				if job.ResultPath == nil {
					continue
				}
				if err := s.store.Delete(*job.ResultPath); err != nil {
					s.logger.Warn("delete settlement result",
						zap.String("job_id", job.ID),
						zap.Error(err))
				}
			}
			if deleted, err := s.store.CleanupOlderThan(s.resultTTL); err != nil {
				s.logger.Warn("sweep settlement storage", zap.Error(err))
			} else if len(deleted) > 0 {
				s.logger.Info("settlement storage swept", zap.Int("deleted", len(deleted)))
			}
		}
	}
}
