package dto

import (
	"time"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// LessonPlanRequest describes one session of a new education.
type LessonPlanRequest struct {
	Session           int       `json:"session" validate:"required,min=1"`
	Date              time.Time `json:"date" validate:"required"`
	StartTime         string    `json:"startTime" validate:"required"`
	EndTime           string    `json:"endTime" validate:"required"`
	MainRequired      int       `json:"mainInstructorRequired" validate:"min=0"`
	AssistantRequired int       `json:"assistantInstructorRequired" validate:"min=0"`
}

// CreateEducationRequest payload for registering a program with its lesson plan.
type CreateEducationRequest struct {
	Name        string                        `json:"name" validate:"required"`
	Institution string                        `json:"institution" validate:"required"`
	Region      string                        `json:"region" validate:"required"`
	GradeClass  string                        `json:"gradeClass"`
	PeriodStart time.Time                     `json:"periodStart" validate:"required"`
	PeriodEnd   time.Time                     `json:"periodEnd" validate:"required"`
	Restriction models.ApplicationRestriction `json:"applicationRestriction"`
	Lessons     []LessonPlanRequest           `json:"lessons" validate:"required,min=1,dive"`
}

// TransitionRequest names the target status of a manual transition.
type TransitionRequest struct {
	TargetStatus models.EducationStatus `json:"targetStatus" validate:"required"`
}

// ScheduleActivationRequest sets or replaces activation timestamps.
type ScheduleActivationRequest struct {
	OpenAt      *time.Time                    `json:"openAt"`
	CloseAt     *time.Time                    `json:"closeAt"`
	Restriction models.ApplicationRestriction `json:"applicationRestriction"`
}

// EducationQuery mirrors supported listing filters.
type EducationQuery struct {
	Status models.EducationStatus
	Region string
	Page   int
	Limit  int
}
