// Package eligibility implements the enrollment rule check as a pure
// function. It never mutates state: the caller persists an enrollment only
// on the Eligible branch, which keeps the decision testable in isolation
// from the effect.
package eligibility

import "github.com/stemsi/krs-backend/internal/model"

// ReasonCode identifies the single rule that rejected an enrollment.
type ReasonCode string

const (
	ReasonAlreadyEnrolled     ReasonCode = "ALREADY_ENROLLED"
	ReasonMissingPrerequisite ReasonCode = "MISSING_PREREQUISITE"
	ReasonCreditLimitExceeded ReasonCode = "CREDIT_LIMIT_EXCEEDED"
	ReasonScheduleConflict    ReasonCode = "SCHEDULE_CONFLICT"
)

// Decision is the tagged result of an evaluation. Exactly one reason is
// reported per rejection: the first rule violated in check order, even if
// later rules would also fail.
type Decision struct {
	Eligible bool       `json:"eligible"`
	Reason   ReasonCode `json:"reason,omitempty"`
	// CourseCode names the offending course where one exists: the first
	// missing prerequisite, or the already-enrolled/conflicting course.
	CourseCode string `json:"course_code,omitempty"`
}

// AcademicState is a read-only snapshot of a student's standing at
// evaluation time.
type AcademicState struct {
	// ApprovedCourses holds the codes of passed courses.
	ApprovedCourses map[string]struct{}
	// ActiveCourses holds the courses of the student's active enrollments,
	// with schedules loaded.
	ActiveCourses []model.Course
	// CreditLimit is the maximum total credits across active enrollments.
	CreditLimit int
}

func eligible() Decision {
	return Decision{Eligible: true}
}

func ineligible(reason ReasonCode, courseCode string) Decision {
	return Decision{Reason: reason, CourseCode: courseCode}
}

// Evaluate decides whether the student described by state may enroll in
// candidate. Checks run in strict order:
//
//  1. duplicate enrollment
//  2. prerequisites, in declaration order (first missing wins)
//  3. credit limit (strictly greater than the limit fails; exactly at
//     the limit is allowed)
//  4. schedule conflict against every active enrollment
//
// Course identity is compared by code, never by reference.
func Evaluate(state AcademicState, candidate model.Course) Decision {
	for _, active := range state.ActiveCourses {
		if active.Code == candidate.Code {
			return ineligible(ReasonAlreadyEnrolled, candidate.Code)
		}
	}

	for _, prereq := range candidate.Prerequisites {
		if _, ok := state.ApprovedCourses[prereq]; !ok {
			return ineligible(ReasonMissingPrerequisite, prereq)
		}
	}

	if totalCredits(state.ActiveCourses)+candidate.Credits > state.CreditLimit {
		return ineligible(ReasonCreditLimitExceeded, "")
	}

	for _, active := range state.ActiveCourses {
		for _, have := range active.Schedules {
			for _, want := range candidate.Schedules {
				if have.Overlaps(want) {
					return ineligible(ReasonScheduleConflict, active.Code)
				}
			}
		}
	}

	return eligible()
}

func totalCredits(courses []model.Course) int {
	total := 0
	for _, c := range courses {
		total += c.Credits
	}
	return total
}
