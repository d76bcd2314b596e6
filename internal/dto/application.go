package dto

import "github.com/hanbit-edu/workflow-api/internal/models"

// CreateApplicationRequest is an instructor's request to teach an education.
type CreateApplicationRequest struct {
	EducationID string                `json:"educationId" validate:"required"`
	Role        models.InstructorRole `json:"role" validate:"required"`
}

// DecideApplicationRequest records the administrator decision.
type DecideApplicationRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required"`
}

// ApplicationQuery mirrors supported listing filters.
type ApplicationQuery struct {
	EducationID  string
	InstructorID string
	Status       models.ApplicationStatus
}
