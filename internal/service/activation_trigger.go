package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

type dueEducationLister interface {
	ListDueForOpen(ctx context.Context, now time.Time, limit int) ([]models.Education, error)
	ListDueForClose(ctx context.Context, now time.Time, limit int) ([]models.Education, error)
}

type statusTransitioner interface {
	Transition(ctx context.Context, id string, target models.EducationStatus, actor models.Actor) (*models.Education, error)
}

// ActivationTrigger periodically scans for educations whose activation
// timestamps have elapsed and applies the corresponding transition as the
// SYSTEM actor. The status swap underneath is compare-and-swap guarded, so
// overlapping scans or a concurrent manual transition fire each change at
// most once; a failed education stays due and is retried on the next scan.
type ActivationTrigger struct {
	educations dueEducationLister
	machine    statusTransitioner
	metrics    *MetricsService
	logger     *zap.Logger

	interval time.Duration
	batch    int
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewActivationTrigger constructs the trigger loop.
func NewActivationTrigger(educations dueEducationLister, machine statusTransitioner, metrics *MetricsService, logger *zap.Logger, interval time.Duration, batch int) *ActivationTrigger {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivationTrigger{
		educations: educations,
		machine:    machine,
		metrics:    metrics,
		logger:     logger,
		interval:   interval,
		batch:      batch,
		now:        time.Now,
	}
}

// Start launches the scan loop. Safe to call once.
func (t *ActivationTrigger) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.started = true

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		t.logger.Info("activation trigger started", zap.Duration("interval", t.interval))
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				fired, err := t.Tick(runCtx)
				if err != nil {
					t.logger.Warn("activation scan failed", zap.Error(err))
				}
				t.metrics.ObserveTriggerTick(fired)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current scan to finish.
func (t *ActivationTrigger) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()
	cancel()
	<-done
	t.logger.Info("activation trigger stopped")
}

// Tick runs one scan and returns how many transitions fired. Per-education
// failures are logged and skipped so one stuck row cannot starve the rest.
func (t *ActivationTrigger) Tick(ctx context.Context) (int, error) {
	now := t.now().UTC()
	fired := 0

	opens, err := t.educations.ListDueForOpen(ctx, now, t.batch)
	if err != nil {
		return fired, err
	}
	for _, education := range opens {
		if _, err := t.machine.Transition(ctx, education.ID, models.EducationStatusOpenForApplication, models.SystemActor); err != nil {
			t.logger.Warn("scheduled open failed",
				zap.String("education_id", education.ID),
				zap.Error(err))
			continue
		}
		fired++
	}

	closes, err := t.educations.ListDueForClose(ctx, now, t.batch)
	if err != nil {
		return fired, err
	}
	for _, education := range closes {
		if _, err := t.machine.Transition(ctx, education.ID, models.EducationStatusApplicationClosed, models.SystemActor); err != nil {
			t.logger.Warn("scheduled close failed",
				zap.String("education_id", education.ID),
				zap.Error(err))
			continue
		}
		fired++
	}

	return fired, nil
}
