package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/models"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

type feeEducationReader interface {
	GetByID(ctx context.Context, id string) (*models.Education, error)
	ListLessons(ctx context.Context, educationID string) ([]models.Lesson, error)
}

type feeBindingLister interface {
	ListByEducation(ctx context.Context, educationID string) ([]models.LessonInstructor, error)
}

// CategoryFor classifies an institution by its name. The data source carries
// no structured category, so classification leans on the Korean school-type
// substrings that appear in every institution name.
func CategoryFor(institution string) models.InstitutionCategory {
	switch {
	case strings.Contains(institution, "초등"):
		return models.CategoryElementary
	case strings.Contains(institution, "중학"):
		return models.CategoryMiddle
	case strings.Contains(institution, "고등"):
		return models.CategoryHigh
	case strings.Contains(institution, "특수"):
		return models.CategorySpecial
	case strings.Contains(institution, "도서"),
		strings.Contains(institution, "벽지"),
		strings.Contains(institution, "섬"):
		return models.CategoryIsland
	default:
		return models.CategoryGeneral
	}
}

// NewFeePolicy builds a policy from the configured mode, falling back to
// STATUS_BASED and the standard rate table.
func NewFeePolicy(mode string) models.FeePolicy {
	policyMode := models.FeePolicyMode(strings.ToUpper(mode))
	if policyMode != models.PolicyStatusBased && policyMode != models.PolicyAssignmentBased {
		policyMode = models.PolicyStatusBased
	}
	return models.FeePolicy{Mode: policyMode, BaseRates: models.DefaultFeeRates}
}

// ShouldCount decides whether an education accrues fees under the policy.
// STATUS_BASED counts only at CONFIRMED or COMPLETED; ASSIGNMENT_BASED counts
// as soon as any lesson carries an instructor entry, whatever the education's
// status.
func ShouldCount(education *models.Education, lessons []models.Lesson, bindings []models.LessonInstructor, mode models.FeePolicyMode) bool {
	if mode == models.PolicyAssignmentBased {
		return len(bindings) > 0
	}
	switch education.Status {
	case models.EducationStatusConfirmed, models.EducationStatusCompleted:
		return true
	default:
		return false
	}
}

// FeeFor computes the deterministic accrual estimate for one education. Every
// instructor entry on a lesson counts, applied or confirmed; a non-counted
// education yields a zero breakdown. The same inputs always produce the same
// output, which is what makes the estimate safe to cache.
func FeeFor(education *models.Education, lessons []models.Lesson, bindings []models.LessonInstructor, policy models.FeePolicy) models.FeeBreakdown {
	category := CategoryFor(education.Institution)
	breakdown := models.FeeBreakdown{
		EducationID: education.ID,
		Category:    category,
		Mode:        policy.Mode,
		Lines:       make([]models.FeeLine, 0, len(lessons)),
	}
	if !ShouldCount(education, lessons, bindings, policy.Mode) {
		return breakdown
	}
	breakdown.Counted = true

	rate := policy.BaseRates[category]
	perLesson := make(map[string]map[models.InstructorRole]int, len(lessons))
	for _, b := range bindings {
		if perLesson[b.LessonID] == nil {
			perLesson[b.LessonID] = make(map[models.InstructorRole]int, 2)
		}
		perLesson[b.LessonID][b.Role]++
	}
	for _, lesson := range lessons {
		counts := perLesson[lesson.ID]
		line := models.FeeLine{
			Session:        lesson.Session,
			MainCount:      counts[models.RoleMain],
			AssistantCount: counts[models.RoleAssistant],
		}
		line.Amount = int64(line.MainCount)*rate.Main + int64(line.AssistantCount)*rate.Assistant
		breakdown.Lines = append(breakdown.Lines, line)
		breakdown.Total += line.Amount
	}
	return breakdown
}

// FeeService serves cached fee estimates. Computation itself is pure; the
// service adds data loading and a redis read-through with a short TTL.
type FeeService struct {
	educations feeEducationReader
	bindings   feeBindingLister
	cache      *redis.Client
	policy     models.FeePolicy
	cacheTTL   time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewFeeService constructs the service. A nil cache disables caching.
func NewFeeService(educations feeEducationReader, bindings feeBindingLister, cache *redis.Client, policy models.FeePolicy, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *FeeService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{
		educations: educations,
		bindings:   bindings,
		cache:      cache,
		policy:     policy,
		cacheTTL:   cacheTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Policy returns the active policy.
func (s *FeeService) Policy() models.FeePolicy {
	return s.policy
}

// Compute returns the fee breakdown for one education. An empty mode uses
// the configured policy; passing a mode answers "what would this education
// accrue under the other policy" without touching configuration.
func (s *FeeService) Compute(ctx context.Context, educationID string, mode models.FeePolicyMode) (*models.FeeBreakdown, error) {
	policy := s.policy
	switch mode {
	case "":
	case models.PolicyStatusBased, models.PolicyAssignmentBased:
		policy.Mode = mode
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee policy mode")
	}

	cacheKey := fmt.Sprintf("fee:%s:%s", educationID, policy.Mode)
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached models.FeeBreakdown
			if err := json.Unmarshal(payload, &cached); err == nil {
				s.metrics.RecordFeeCache(true)
				return &cached, nil
			}
		}
		s.metrics.RecordFeeCache(false)
	}

	education, err := s.educations.GetByID(ctx, educationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "education not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load education")
	}
	lessons, err := s.educations.ListLessons(ctx, educationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	bindings, err := s.bindings.ListByEducation(ctx, educationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}

	breakdown := FeeFor(education, lessons, bindings, policy)
	if s.cache != nil {
		if payload, err := json.Marshal(breakdown); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("cache fee breakdown", zap.String("education_id", educationID), zap.Error(err))
			}
		}
	}
	return &breakdown, nil
}
