package model

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

// Enrollment associates a student with a course. It is created only after
// a successful eligibility evaluation and leaves the active state only by
// explicit withdrawal or by the course being approved (passed).
type Enrollment struct {
	ID          int              `json:"id"`
	StudentID   int              `json:"student_id"`
	CourseID    int              `json:"course_id"`
	Status      EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time        `json:"enrolled_at"`
	WithdrawnAt *time.Time       `json:"withdrawn_at,omitempty"`
}

// ActiveEnrollment is an active enrollment joined with its course, as the
// eligibility evaluation and the student plan view consume it.
type ActiveEnrollment struct {
	Enrollment Enrollment `json:"enrollment"`
	Course     Course     `json:"course"`
}

// EnrollRequest is the payload for enrolling into a course.
type EnrollRequest struct {
	CourseCode string `json:"course_code" binding:"required,min=3,max=16"`
}

// StudyPlan is the student's current KRS view: active enrollments plus the
// credit total they occupy.
type StudyPlan struct {
	Enrollments  []ActiveEnrollment `json:"enrollments"`
	TotalCredits int                `json:"total_credits"`
	CreditLimit  int                `json:"credit_limit"`
}
