package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/models"
	appErrors "github.com/hanbit-edu/workflow-api/pkg/errors"
)

func TestCategoryFor(t *testing.T) {
	cases := map[string]models.InstitutionCategory{
		"한빛초등학교":   models.CategoryElementary,
		"서울중학교":    models.CategoryMiddle,
		"부산고등학교":   models.CategoryHigh,
		"하늘특수학교":   models.CategorySpecial,
		"도서지역분교":   models.CategoryIsland,
		"벽지분교":     models.CategoryIsland,
		"섬마을학교":    models.CategoryIsland,
		"한빛교육센터":   models.CategoryGeneral,
	}
	for name, want := range cases {
		assert.Equal(t, want, CategoryFor(name), name)
	}
}

func TestFeeForElementaryScenario(t *testing.T) {
	education := &models.Education{ID: "edu-1", Institution: "한빛초등학교", Status: models.EducationStatusConfirmed}
	lessons := []models.Lesson{
		{ID: "l1", Session: 1, MainRequired: 1, AssistantRequired: 1},
		{ID: "l2", Session: 2, MainRequired: 1, AssistantRequired: 1},
	}
	bindings := []models.LessonInstructor{
		{LessonID: "l1", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed},
		{LessonID: "l1", InstructorID: "i2", Role: models.RoleAssistant, Status: models.BindingConfirmed},
		{LessonID: "l2", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed},
		{LessonID: "l2", InstructorID: "i2", Role: models.RoleAssistant, Status: models.BindingConfirmed},
	}
	policy := NewFeePolicy("STATUS_BASED")

	breakdown := FeeFor(education, lessons, bindings, policy)
	require.True(t, breakdown.Counted)
	assert.Equal(t, models.CategoryElementary, breakdown.Category)
	require.Len(t, breakdown.Lines, 2)
	// Per elementary session: 40000 main + 30000 assistant.
	assert.Equal(t, int64(70000), breakdown.Lines[0].Amount)
	assert.Equal(t, int64(140000), breakdown.Total)
}

func TestFeeForCountsAppliedAndConfirmedEntries(t *testing.T) {
	education := &models.Education{ID: "edu-1", Institution: "한빛초등학교", Status: models.EducationStatusConfirmed}
	lessons := []models.Lesson{{ID: "l1", Session: 1, MainRequired: 1, AssistantRequired: 1}}
	bindings := []models.LessonInstructor{
		{LessonID: "l1", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed},
		{LessonID: "l1", InstructorID: "i2", Role: models.RoleAssistant, Status: models.BindingApplied},
	}

	breakdown := FeeFor(education, lessons, bindings, NewFeePolicy("STATUS_BASED"))
	require.True(t, breakdown.Counted)
	assert.Equal(t, 1, breakdown.Lines[0].MainCount)
	assert.Equal(t, 1, breakdown.Lines[0].AssistantCount)
	assert.Equal(t, int64(70000), breakdown.Total)
}

func TestFeeForStatusBasedCountsConfirmedAndCompletedOnly(t *testing.T) {
	lessons := []models.Lesson{{ID: "l1", Session: 1, MainRequired: 1}}
	bindings := []models.LessonInstructor{
		{LessonID: "l1", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed},
	}
	policy := NewFeePolicy("STATUS_BASED")

	counted := map[models.EducationStatus]bool{
		models.EducationStatusPending:            false,
		models.EducationStatusOpenForApplication: false,
		models.EducationStatusInProgress:         false,
		models.EducationStatusCanceled:           false,
		models.EducationStatusConfirmed:          true,
		models.EducationStatusCompleted:          true,
	}
	for status, want := range counted {
		education := &models.Education{ID: "edu-1", Institution: "한빛초등학교", Status: status}
		breakdown := FeeFor(education, lessons, bindings, policy)
		assert.Equal(t, want, breakdown.Counted, string(status))
		if !want {
			assert.Equal(t, int64(0), breakdown.Total, string(status))
			assert.Empty(t, breakdown.Lines, string(status))
		}
	}
}

func TestFeeForAssignmentBasedCountsAnyBinding(t *testing.T) {
	education := &models.Education{ID: "edu-1", Institution: "한빛초등학교", Status: models.EducationStatusPending}
	lessons := []models.Lesson{
		{ID: "l1", Session: 1, MainRequired: 1},
		{ID: "l2", Session: 2, MainRequired: 1},
	}
	policy := NewFeePolicy("ASSIGNMENT_BASED")

	breakdown := FeeFor(education, lessons, nil, policy)
	assert.False(t, breakdown.Counted)
	assert.Equal(t, int64(0), breakdown.Total)

	// A single applied entry on one lesson is enough, whatever the
	// education's own status.
	applied := []models.LessonInstructor{
		{LessonID: "l1", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingApplied},
	}
	breakdown = FeeFor(education, lessons, applied, policy)
	require.True(t, breakdown.Counted)
	assert.Equal(t, int64(40000), breakdown.Total)
}

func TestFeeForZeroAssignmentsIsZero(t *testing.T) {
	education := &models.Education{ID: "edu-1", Institution: "한빛초등학교", Status: models.EducationStatusCompleted}
	lessons := []models.Lesson{{ID: "l1", Session: 1, MainRequired: 1}}

	breakdown := FeeFor(education, lessons, nil, NewFeePolicy("STATUS_BASED"))
	assert.True(t, breakdown.Counted)
	assert.Equal(t, int64(0), breakdown.Total)
}

func TestFeeServiceCompute(t *testing.T) {
	educations := newMockEducationRepo()
	seedEducation(educations, "edu-1", models.EducationStatusConfirmed)
	educations.lessons["edu-1"] = []models.Lesson{{ID: "l1", EducationID: "edu-1", Session: 1, MainRequired: 1}}
	bindings := &mockBindingLister{bindings: map[string][]models.LessonInstructor{
		"edu-1": {{LessonID: "l1", InstructorID: "i1", Role: models.RoleMain, Status: models.BindingConfirmed}},
	}}
	svc := NewFeeService(educations, bindings, nil, NewFeePolicy("STATUS_BASED"), 0, nil, zap.NewNop())

	breakdown, err := svc.Compute(context.Background(), "edu-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), breakdown.Total)

	// Mode override answers the counterfactual without changing config.
	breakdown, err = svc.Compute(context.Background(), "edu-1", models.PolicyAssignmentBased)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyAssignmentBased, breakdown.Mode)

	_, err = svc.Compute(context.Background(), "edu-1", "MOOD_BASED")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Compute(context.Background(), "missing", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
