package models

import "time"

// EducationStatus enumerates the lifecycle states of an education program.
type EducationStatus string

const (
	EducationStatusPending            EducationStatus = "PENDING"
	EducationStatusUpcoming           EducationStatus = "UPCOMING"
	EducationStatusOpenForApplication EducationStatus = "OPEN_FOR_APPLICATION"
	EducationStatusApplicationClosed  EducationStatus = "APPLICATION_CLOSED"
	EducationStatusConfirmed          EducationStatus = "CONFIRMED"
	EducationStatusInProgress         EducationStatus = "IN_PROGRESS"
	EducationStatusCompleted          EducationStatus = "COMPLETED"
	EducationStatusCanceled           EducationStatus = "CANCELED"
)

// educationStatusOrder is the only legal forward sequence.
var educationStatusOrder = []EducationStatus{
	EducationStatusPending,
	EducationStatusUpcoming,
	EducationStatusOpenForApplication,
	EducationStatusApplicationClosed,
	EducationStatusConfirmed,
	EducationStatusInProgress,
	EducationStatusCompleted,
}

// NextEducationStatus returns the immediate successor of the given status,
// or empty when the status is terminal or unknown.
func NextEducationStatus(status EducationStatus) EducationStatus {
	for i, s := range educationStatusOrder {
		if s == status && i+1 < len(educationStatusOrder) {
			return educationStatusOrder[i+1]
		}
	}
	return ""
}

// CanTransitionEducation reports whether moving from one status to another is
// legal: either the immediate successor, or CANCELED from any state except
// COMPLETED. CANCELED itself is terminal.
func CanTransitionEducation(from, to EducationStatus) bool {
	if from == EducationStatusCanceled {
		return false
	}
	if to == EducationStatusCanceled {
		return from != EducationStatusCompleted
	}
	return NextEducationStatus(from) == to
}

// IsValidEducationStatus reports whether the value names a known status.
func IsValidEducationStatus(status EducationStatus) bool {
	if status == EducationStatusCanceled {
		return true
	}
	for _, s := range educationStatusOrder {
		if s == status {
			return true
		}
	}
	return false
}

// ApplicationRestriction limits which instructor roles may apply.
type ApplicationRestriction string

const (
	RestrictionAll           ApplicationRestriction = "ALL"
	RestrictionMainOnly      ApplicationRestriction = "MAIN_ONLY"
	RestrictionAssistantOnly ApplicationRestriction = "ASSISTANT_ONLY"
)

// Education is one offered program instance at an institution.
type Education struct {
	ID          string                 `db:"id" json:"id"`
	Name        string                 `db:"name" json:"name"`
	Institution string                 `db:"institution" json:"institution"`
	Region      string                 `db:"region" json:"region"`
	GradeClass  string                 `db:"grade_class" json:"gradeClass"`
	PeriodStart time.Time              `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time              `db:"period_end" json:"periodEnd"`
	OpenAt      *time.Time             `db:"open_at" json:"openAt,omitempty"`
	CloseAt     *time.Time             `db:"close_at" json:"closeAt,omitempty"`
	Restriction ApplicationRestriction `db:"restriction" json:"applicationRestriction"`
	Status      EducationStatus        `db:"status" json:"status"`
	CreatedAt   time.Time              `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updatedAt"`
}

// Lesson is one scheduled session within an education.
type Lesson struct {
	ID                string    `db:"id" json:"id"`
	EducationID       string    `db:"education_id" json:"educationId"`
	Session           int       `db:"session" json:"session"`
	Date              time.Time `db:"date" json:"date"`
	StartTime         string    `db:"start_time" json:"startTime"`
	EndTime           string    `db:"end_time" json:"endTime"`
	MainRequired      int       `db:"main_required" json:"mainInstructorRequired"`
	AssistantRequired int       `db:"assistant_required" json:"assistantInstructorRequired"`
}

// EducationFilter constrains listing queries.
type EducationFilter struct {
	Status EducationStatus
	Region string
	Limit  int
	Offset int
}

// EducationDetail is the read model returned to clients: the education with
// its lesson plan, bindings, and the derived assignment status.
type EducationDetail struct {
	Education        Education          `json:"education"`
	Lessons          []Lesson           `json:"lessons"`
	Bindings         []LessonInstructor `json:"bindings"`
	AssignmentStatus AssignmentStatus   `json:"assignmentStatus"`
}
