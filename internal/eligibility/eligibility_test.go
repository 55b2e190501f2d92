package eligibility

import (
	"testing"

	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchedule(t *testing.T, day model.DayOfWeek, start, end string) model.Schedule {
	t.Helper()
	s, err := model.NewSchedule(day, start, end)
	require.NoError(t, err)
	return s
}

func course(code string, credits int, prereqs []string, schedules ...model.Schedule) model.Course {
	return model.Course{
		Code:          code,
		Name:          code,
		Credits:       credits,
		Semester:      1,
		Prerequisites: prereqs,
		Schedules:     schedules,
	}
}

func approved(codes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func TestEvaluate_Eligible(t *testing.T) {
	state := AcademicState{
		ApprovedCourses: approved(),
		CreditLimit:     24,
	}
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))

	d := Evaluate(state, inf101)
	assert.True(t, d.Eligible)
	assert.Empty(t, d.Reason)
}

func TestEvaluate_AlreadyEnrolled(t *testing.T) {
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{inf101},
		CreditLimit:     24,
	}

	// A fresh value with the same code must still be rejected: identity is
	// the course code, not the struct instance.
	dup := course("INF101", 4, nil)
	d := Evaluate(state, dup)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonAlreadyEnrolled, d.Reason)
	assert.Equal(t, "INF101", d.CourseCode)
}

func TestEvaluate_AlreadyEnrolledWinsOverEverything(t *testing.T) {
	inf101 := course("INF101", 20, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{inf101},
		CreditLimit:     24,
	}

	// Candidate also has an unmet prerequisite, blows the credit limit and
	// conflicts with itself — only the duplicate reason may surface.
	dup := course("INF101", 20, []string{"MAT999"}, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	d := Evaluate(state, dup)
	assert.Equal(t, ReasonAlreadyEnrolled, d.Reason)
}

func TestEvaluate_MissingPrerequisite(t *testing.T) {
	state := AcademicState{
		ApprovedCourses: approved(),
		CreditLimit:     24,
	}
	inf201 := course("INF201", 4, []string{"INF101"})

	d := Evaluate(state, inf201)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonMissingPrerequisite, d.Reason)
	assert.Equal(t, "INF101", d.CourseCode)
}

func TestEvaluate_FirstMissingPrerequisiteReported(t *testing.T) {
	state := AcademicState{
		ApprovedCourses: approved("MAT101"),
		CreditLimit:     24,
	}
	// MAT101 is approved; INF102 and INF103 are both missing. Declaration
	// order determines which one is named.
	adv := course("INF301", 4, []string{"MAT101", "INF102", "INF103"})

	d := Evaluate(state, adv)
	assert.Equal(t, ReasonMissingPrerequisite, d.Reason)
	assert.Equal(t, "INF102", d.CourseCode)
}

func TestEvaluate_PrerequisiteWinsOverCreditAndSchedule(t *testing.T) {
	busy := course("FIS101", 22, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{busy},
		CreditLimit:     24,
	}
	candidate := course("INF201", 6, []string{"INF101"},
		mustSchedule(t, model.DayMonday, "09:00", "11:00"))

	d := Evaluate(state, candidate)
	assert.Equal(t, ReasonMissingPrerequisite, d.Reason)
	assert.Equal(t, "INF101", d.CourseCode)
}

func TestEvaluate_CreditLimit(t *testing.T) {
	loaded := course("FIS101", 20, nil)
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{loaded},
		CreditLimit:     24,
	}

	// 20 + 4 = 24: exactly at the limit is allowed.
	atLimit := Evaluate(state, course("KIM101", 4, nil))
	assert.True(t, atLimit.Eligible)

	// 20 + 5 = 25: one over the limit fails.
	overLimit := Evaluate(state, course("BIO101", 5, nil))
	assert.False(t, overLimit.Eligible)
	assert.Equal(t, ReasonCreditLimitExceeded, overLimit.Reason)
	assert.Empty(t, overLimit.CourseCode)
}

func TestEvaluate_ScheduleConflict(t *testing.T) {
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{inf101},
		CreditLimit:     24,
	}
	mat101 := course("MAT101", 6, nil, mustSchedule(t, model.DayMonday, "09:30", "11:30"))

	d := Evaluate(state, mat101)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonScheduleConflict, d.Reason)
	assert.Equal(t, "INF101", d.CourseCode)
}

func TestEvaluate_BackToBackSchedulesDoNotConflict(t *testing.T) {
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{inf101},
		CreditLimit:     24,
	}
	// Starts exactly when INF101 ends: half-open intervals, no conflict.
	next := course("MAT101", 6, nil, mustSchedule(t, model.DayMonday, "10:00", "12:00"))

	d := Evaluate(state, next)
	assert.True(t, d.Eligible)
}

func TestEvaluate_SameTimeDifferentDayDoesNotConflict(t *testing.T) {
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{inf101},
		CreditLimit:     24,
	}
	other := course("MAT101", 6, nil, mustSchedule(t, model.DayTuesday, "08:00", "10:00"))

	assert.True(t, Evaluate(state, other).Eligible)
}

func TestEvaluate_IsPure(t *testing.T) {
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	state := AcademicState{
		ApprovedCourses: approved(),
		ActiveCourses:   []model.Course{inf101},
		CreditLimit:     24,
	}
	mat101 := course("MAT101", 6, nil, mustSchedule(t, model.DayMonday, "09:30", "11:30"))

	first := Evaluate(state, mat101)
	second := Evaluate(state, mat101)
	assert.Equal(t, first, second)
	// The snapshot itself must be untouched.
	assert.Len(t, state.ActiveCourses, 1)
}

// TestEvaluate_SampleScenario walks the documented sequence: enroll INF101,
// attempt INF201 before passing INF101, attempt overlapping MAT101, then
// pass INF101 and retry both.
func TestEvaluate_SampleScenario(t *testing.T) {
	inf101 := course("INF101", 4, nil, mustSchedule(t, model.DayMonday, "08:00", "10:00"))
	inf201 := course("INF201", 4, []string{"INF101"}, mustSchedule(t, model.DayTuesday, "10:00", "12:00"))
	mat101 := course("MAT101", 6, nil, mustSchedule(t, model.DayMonday, "09:30", "11:30"))

	state := AcademicState{ApprovedCourses: approved(), CreditLimit: 24}

	d := Evaluate(state, inf101)
	require.True(t, d.Eligible)
	state.ActiveCourses = append(state.ActiveCourses, inf101)

	d = Evaluate(state, inf201)
	require.False(t, d.Eligible)
	assert.Equal(t, ReasonMissingPrerequisite, d.Reason)
	assert.Equal(t, "INF101", d.CourseCode)

	d = Evaluate(state, mat101)
	require.False(t, d.Eligible)
	assert.Equal(t, ReasonScheduleConflict, d.Reason)
	assert.Equal(t, "INF101", d.CourseCode)

	// INF101 passed: leaves the active set, enters the approved set.
	state.ActiveCourses = nil
	state.ApprovedCourses = approved("INF101")

	assert.True(t, Evaluate(state, mat101).Eligible)
	assert.True(t, Evaluate(state, inf201).Eligible)
}
