package models

import "time"

// InstructorRole distinguishes the two slot types on a lesson.
type InstructorRole string

const (
	RoleMain      InstructorRole = "MAIN"
	RoleAssistant InstructorRole = "ASSISTANT"
)

// BindingStatus is the per-lesson state of an instructor entry.
type BindingStatus string

const (
	BindingApplied   BindingStatus = "APPLIED"
	BindingConfirmed BindingStatus = "CONFIRMED"
)

// AssignmentMode selects which lessons an assign call targets.
type AssignmentMode string

const (
	AssignmentModePartial AssignmentMode = "PARTIAL"
	AssignmentModeFull    AssignmentMode = "FULL"
)

// AssignmentStatus is the derived per-education aggregate of lesson bindings.
type AssignmentStatus string

const (
	AssignmentUnassigned AssignmentStatus = "UNASSIGNED"
	AssignmentPartial    AssignmentStatus = "PARTIAL"
	AssignmentConfirmed  AssignmentStatus = "CONFIRMED"
)

// Instructor carries the capacity limits enforced by the matcher.
type Instructor struct {
	ID                          string    `db:"id" json:"id"`
	Name                        string    `db:"name" json:"name"`
	Region                      string    `db:"region" json:"region"`
	MonthlyLeadMaxSessions      int       `db:"monthly_lead_max_sessions" json:"monthlyLeadMaxSessions"`
	MonthlyAssistantMaxSessions int       `db:"monthly_assistant_max_sessions" json:"monthlyAssistantMaxSessions"`
	Active                      bool      `db:"active" json:"active"`
	CreatedAt                   time.Time `db:"created_at" json:"createdAt"`
}

// DeriveAssignmentStatus aggregates lesson bindings into the per-education
// view: UNASSIGNED when no bindings exist, CONFIRMED when every lesson has
// its required number of confirmed instructors in both roles, PARTIAL
// otherwise. The value is always computed from bindings, never stored.
func DeriveAssignmentStatus(lessons []Lesson, bindings []LessonInstructor) AssignmentStatus {
	if len(bindings) == 0 {
		return AssignmentUnassigned
	}
	confirmed := make(map[string]map[InstructorRole]int, len(lessons))
	for _, b := range bindings {
		if b.Status != BindingConfirmed {
			continue
		}
		if confirmed[b.LessonID] == nil {
			confirmed[b.LessonID] = make(map[InstructorRole]int, 2)
		}
		confirmed[b.LessonID][b.Role]++
	}
	for _, lesson := range lessons {
		counts := confirmed[lesson.ID]
		if counts[RoleMain] < lesson.MainRequired || counts[RoleAssistant] < lesson.AssistantRequired {
			return AssignmentPartial
		}
	}
	return AssignmentConfirmed
}

// LessonInstructor is one instructor binding on one lesson. An instructor id
// appears at most once per lesson across both roles.
type LessonInstructor struct {
	ID           string         `db:"id" json:"id"`
	LessonID     string         `db:"lesson_id" json:"lessonId"`
	EducationID  string         `db:"education_id" json:"educationId"`
	Session      int            `db:"session" json:"session"`
	InstructorID string         `db:"instructor_id" json:"instructorId"`
	Name         string         `db:"name" json:"name"`
	Role         InstructorRole `db:"role" json:"role"`
	Status       BindingStatus  `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}
