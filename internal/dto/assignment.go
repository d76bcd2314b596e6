package dto

import "github.com/hanbit-edu/workflow-api/internal/models"

// AssignInstructorRequest binds an instructor to lesson sessions of an education.
// Sessions is ignored when Mode is FULL.
type AssignInstructorRequest struct {
	InstructorID string                `json:"instructorId" validate:"required"`
	Role         models.InstructorRole `json:"role" validate:"required"`
	Mode         models.AssignmentMode `json:"mode" validate:"required"`
	Sessions     []int                 `json:"sessions" validate:"omitempty,dive,min=1"`
}

// ConfirmInstructorRequest confirms a single binding.
type ConfirmInstructorRequest struct {
	InstructorID string `json:"instructorId" validate:"required"`
	Session      int    `json:"session" validate:"required,min=1"`
}

// RemoveInstructorRequest deletes a single binding.
type RemoveInstructorRequest struct {
	InstructorID string `json:"instructorId" validate:"required"`
	Session      int    `json:"session" validate:"required,min=1"`
}
