package models

import "time"

// ApplicationStatus is the stored administrator decision on an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// ApplicationFinalStatus is derived by cross-referencing lesson bindings;
// it is never stored.
type ApplicationFinalStatus string

const (
	FinalPending   ApplicationFinalStatus = "PENDING"
	FinalAccepted  ApplicationFinalStatus = "ACCEPTED"
	FinalRejected  ApplicationFinalStatus = "REJECTED"
	FinalConfirmed ApplicationFinalStatus = "CONFIRMED"
	FinalRemoved   ApplicationFinalStatus = "REMOVED"
)

// InstructorApplication is a request by an instructor to teach an education.
// Immutable once the parent education reaches COMPLETED.
type InstructorApplication struct {
	ID              string            `db:"id" json:"id"`
	EducationID     string            `db:"education_id" json:"educationId"`
	InstructorID    string            `db:"instructor_id" json:"instructorId"`
	InstructorName  string            `db:"instructor_name" json:"instructorName"`
	Role            InstructorRole    `db:"role" json:"role"`
	ApplicationDate time.Time         `db:"application_date" json:"applicationDate"`
	Status          ApplicationStatus `db:"status" json:"status"`
	DecidedBy       *string           `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time        `db:"decided_at" json:"decidedAt,omitempty"`
}

// ApplicationView pairs a stored application with its derived final status.
type ApplicationView struct {
	InstructorApplication
	FinalStatus ApplicationFinalStatus `json:"finalStatus"`
}

// DeriveFinalStatus cross-references an application with the instructor's
// bindings on the same education. CONFIRMED when any binding is confirmed,
// REMOVED when a pending or accepted applicant is absent from every binding
// of a fully confirmed education, otherwise the stored decision as-is.
func DeriveFinalStatus(app InstructorApplication, instructorBindings []LessonInstructor, assignment AssignmentStatus) ApplicationFinalStatus {
	for _, b := range instructorBindings {
		if b.Status == BindingConfirmed {
			return FinalConfirmed
		}
	}
	if len(instructorBindings) == 0 &&
		assignment == AssignmentConfirmed &&
		(app.Status == ApplicationPending || app.Status == ApplicationAccepted) {
		return FinalRemoved
	}
	return ApplicationFinalStatus(app.Status)
}

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	EducationID  string
	InstructorID string
	Status       ApplicationStatus
	Limit        int
	Offset       int
}
