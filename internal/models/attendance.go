package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus enumerates the document workflow states of a sheet.
type AttendanceStatus string

const (
	AttendanceTeacherDraft        AttendanceStatus = "TEACHER_DRAFT"
	AttendanceTeacherReady        AttendanceStatus = "TEACHER_READY"
	AttendanceInstructorRequested AttendanceStatus = "INSTRUCTOR_REQUESTED"
	AttendanceSentToInstructor    AttendanceStatus = "SENT_TO_INSTRUCTOR"
	AttendanceReturnedToTeacher   AttendanceStatus = "RETURNED_TO_TEACHER"
	AttendanceAdminFinalized      AttendanceStatus = "ADMIN_FINALIZED"
)

// attendanceSheetNamespace seeds deterministic sheet ids so that repeated
// "open this class" requests land on the same sheet.
var attendanceSheetNamespace = uuid.MustParse("8fb5a9f2-6c5e-4ce9-9d5b-7f0c1b6d3a41")

// AttendanceSheetID derives the sheet identity from its natural key.
func AttendanceSheetID(educationID, grade, className string) string {
	key := fmt.Sprintf("%s|%s|%s", educationID, grade, className)
	return uuid.NewSHA1(attendanceSheetNamespace, []byte(key)).String()
}

// AttendanceSheet is the per-class attendance document passed between
// school teacher, instructor, and administrator.
type AttendanceSheet struct {
	ID              string           `db:"id" json:"attendanceId"`
	EducationID     string           `db:"education_id" json:"educationId"`
	InstitutionName string           `db:"institution_name" json:"institutionName"`
	Grade           string           `db:"grade" json:"grade"`
	ClassName       string           `db:"class_name" json:"className"`
	TeacherName     string           `db:"teacher_name" json:"teacherName"`
	Status          AttendanceStatus `db:"status" json:"status"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceStudent is one student row on a sheet.
type AttendanceStudent struct {
	ID      string `db:"id" json:"id"`
	SheetID string `db:"sheet_id" json:"sheetId"`
	Number  int    `db:"number" json:"number"`
	Name    string `db:"name" json:"name"`
	Note    string `db:"note" json:"note,omitempty"`
}

// AttendanceTransition is one append-only history row. The current sheet
// status is always the last applied transition.
type AttendanceTransition struct {
	ID         string           `db:"id" json:"id"`
	SheetID    string           `db:"sheet_id" json:"sheetId"`
	Status     AttendanceStatus `db:"status" json:"status"`
	ActorRole  ActorRole        `db:"actor_role" json:"actorRole"`
	ActorID    string           `db:"actor_id" json:"actorId"`
	RecordedAt time.Time        `db:"recorded_at" json:"updatedAt"`
}

// AttendanceDetail is the full read model for one sheet.
type AttendanceDetail struct {
	Sheet    AttendanceSheet        `json:"sheet"`
	Students []AttendanceStudent    `json:"students"`
	History  []AttendanceTransition `json:"history"`
}
