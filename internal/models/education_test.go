package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionEducationForwardOnly(t *testing.T) {
	assert.True(t, CanTransitionEducation(EducationStatusPending, EducationStatusUpcoming))
	assert.True(t, CanTransitionEducation(EducationStatusUpcoming, EducationStatusOpenForApplication))
	assert.True(t, CanTransitionEducation(EducationStatusOpenForApplication, EducationStatusApplicationClosed))
	assert.True(t, CanTransitionEducation(EducationStatusApplicationClosed, EducationStatusConfirmed))
	assert.True(t, CanTransitionEducation(EducationStatusConfirmed, EducationStatusInProgress))
	assert.True(t, CanTransitionEducation(EducationStatusInProgress, EducationStatusCompleted))

	// No skipping, no going back.
	assert.False(t, CanTransitionEducation(EducationStatusPending, EducationStatusOpenForApplication))
	assert.False(t, CanTransitionEducation(EducationStatusUpcoming, EducationStatusPending))
	assert.False(t, CanTransitionEducation(EducationStatusConfirmed, EducationStatusConfirmed))
	assert.False(t, CanTransitionEducation(EducationStatusCompleted, EducationStatusPending))
}

func TestCanTransitionEducationCancel(t *testing.T) {
	for _, from := range []EducationStatus{
		EducationStatusPending,
		EducationStatusUpcoming,
		EducationStatusOpenForApplication,
		EducationStatusApplicationClosed,
		EducationStatusConfirmed,
		EducationStatusInProgress,
	} {
		assert.True(t, CanTransitionEducation(from, EducationStatusCanceled), "from %s", from)
	}
	assert.False(t, CanTransitionEducation(EducationStatusCompleted, EducationStatusCanceled))
	assert.False(t, CanTransitionEducation(EducationStatusCanceled, EducationStatusPending))
	assert.False(t, CanTransitionEducation(EducationStatusCanceled, EducationStatusCanceled))
}

func TestNextEducationStatus(t *testing.T) {
	assert.Equal(t, EducationStatusUpcoming, NextEducationStatus(EducationStatusPending))
	assert.Equal(t, EducationStatus(""), NextEducationStatus(EducationStatusCompleted))
	assert.Equal(t, EducationStatus(""), NextEducationStatus(EducationStatusCanceled))
}

func TestDeriveAssignmentStatus(t *testing.T) {
	lessons := []Lesson{
		{ID: "l1", Session: 1, MainRequired: 1, AssistantRequired: 1},
		{ID: "l2", Session: 2, MainRequired: 1, AssistantRequired: 0},
	}

	assert.Equal(t, AssignmentUnassigned, DeriveAssignmentStatus(lessons, nil))

	applied := []LessonInstructor{
		{LessonID: "l1", InstructorID: "i1", Role: RoleMain, Status: BindingApplied},
	}
	assert.Equal(t, AssignmentPartial, DeriveAssignmentStatus(lessons, applied))

	partial := []LessonInstructor{
		{LessonID: "l1", InstructorID: "i1", Role: RoleMain, Status: BindingConfirmed},
		{LessonID: "l1", InstructorID: "i2", Role: RoleAssistant, Status: BindingConfirmed},
	}
	assert.Equal(t, AssignmentPartial, DeriveAssignmentStatus(lessons, partial))

	full := append(partial, LessonInstructor{
		LessonID: "l2", InstructorID: "i1", Role: RoleMain, Status: BindingConfirmed,
	})
	assert.Equal(t, AssignmentConfirmed, DeriveAssignmentStatus(lessons, full))
}

func TestDeriveFinalStatus(t *testing.T) {
	app := InstructorApplication{ID: "a1", InstructorID: "i1", Status: ApplicationAccepted}

	// Confirmed on any binding wins.
	confirmed := []LessonInstructor{{LessonID: "l1", InstructorID: "i1", Role: RoleMain, Status: BindingConfirmed}}
	assert.Equal(t, FinalConfirmed, DeriveFinalStatus(app, confirmed, AssignmentPartial))

	// Present but not yet confirmed keeps the stored decision.
	applied := []LessonInstructor{{LessonID: "l1", InstructorID: "i1", Role: RoleMain, Status: BindingApplied}}
	assert.Equal(t, FinalAccepted, DeriveFinalStatus(app, applied, AssignmentPartial))

	// Accepted but displaced from a fully confirmed education reads REMOVED.
	assert.Equal(t, FinalRemoved, DeriveFinalStatus(app, nil, AssignmentConfirmed))
	pending := InstructorApplication{ID: "a2", InstructorID: "i2", Status: ApplicationPending}
	assert.Equal(t, FinalRemoved, DeriveFinalStatus(pending, nil, AssignmentConfirmed))

	// Rejected stays rejected, and nothing is "removed" while assignment is open.
	rejected := InstructorApplication{ID: "a3", InstructorID: "i3", Status: ApplicationRejected}
	assert.Equal(t, FinalRejected, DeriveFinalStatus(rejected, nil, AssignmentConfirmed))
	assert.Equal(t, FinalAccepted, DeriveFinalStatus(app, nil, AssignmentPartial))
}

func TestAttendanceSheetIDDeterministic(t *testing.T) {
	a := AttendanceSheetID("edu-1", "3", "2")
	b := AttendanceSheetID("edu-1", "3", "2")
	c := AttendanceSheetID("edu-1", "3", "3")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
