package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/krs-backend/internal/config"
	"github.com/stemsi/krs-backend/internal/eligibility"
	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stemsi/krs-backend/internal/repository"
)

// Enrollment flow errors.
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrNotEnrolled    = errors.New("no active enrollment for course")
)

// IneligibleError carries the evaluator's decision when an enrollment is
// rejected by a domain rule.
type IneligibleError struct {
	Decision eligibility.Decision
}

func (e *IneligibleError) Error() string {
	if e.Decision.CourseCode != "" {
		return fmt.Sprintf("enrollment rejected: %s (%s)", e.Decision.Reason, e.Decision.CourseCode)
	}
	return fmt.Sprintf("enrollment rejected: %s", e.Decision.Reason)
}

// enrollmentEvent is pushed to the audit queue and published on the live
// feed channel for every enrollment mutation.
type enrollmentEvent struct {
	Action     string    `json:"action"` // "enrolled" | "withdrawn"
	StudentID  int       `json:"student_id"`
	CourseID   int       `json:"course_id"`
	CourseCode string    `json:"course_code"`
	At         time.Time `json:"at"`
}

// EnrollmentService owns the evaluate-then-append flow. The evaluation
// itself is the pure eligibility.Evaluate; this service loads the academic
// state, serializes concurrent attempts per student, and performs the
// append only on the Eligible branch.
type EnrollmentService struct {
	pool        *pgxpool.Pool
	courseRepo  *repository.CourseRepository
	studentRepo *repository.StudentRepository
	enrollRepo  *repository.EnrollmentRepository
	rdb         *redis.Client
	cfg         *config.Config
	log         zerolog.Logger
}

func NewEnrollmentService(
	pool *pgxpool.Pool,
	courseRepo *repository.CourseRepository,
	studentRepo *repository.StudentRepository,
	enrollRepo *repository.EnrollmentRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		pool:        pool,
		courseRepo:  courseRepo,
		studentRepo: studentRepo,
		enrollRepo:  enrollRepo,
		rdb:         rdb,
		cfg:         cfg,
		log:         log.With().Str("component", "enrollment_service").Logger(),
	}
}

// Evaluate runs the eligibility check for a student and course without
// enrolling. Used by the preview endpoint; also reused inside Enroll.
func (s *EnrollmentService) Evaluate(ctx context.Context, studentID int, courseCode string) (eligibility.Decision, *model.Course, error) {
	course, err := s.courseRepo.GetByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return eligibility.Decision{}, nil, ErrCourseNotFound
		}
		return eligibility.Decision{}, nil, err
	}

	state, err := s.loadState(ctx, studentID)
	if err != nil {
		return eligibility.Decision{}, nil, err
	}

	return eligibility.Evaluate(state, *course), course, nil
}

// Enroll evaluates and, on the Eligible branch, appends the enrollment.
// The whole read-evaluate-append sequence runs inside a transaction holding
// a per-student advisory lock, so two concurrent attempts cannot both pass
// validation against the same pre-append state.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID int, courseCode string) (*model.ActiveEnrollment, error) {
	course, err := s.courseRepo.GetByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Serializes evaluate+append per student. Released at commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(studentID)); err != nil {
		return nil, fmt.Errorf("acquire student lock: %w", err)
	}

	state, err := s.loadState(ctx, studentID)
	if err != nil {
		return nil, err
	}

	decision := eligibility.Evaluate(state, *course)
	if !decision.Eligible {
		return nil, &IneligibleError{Decision: decision}
	}

	enrollment, err := s.enrollRepo.Insert(ctx, tx, studentID, course.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, enrollmentEvent{
		Action:     "enrolled",
		StudentID:  studentID,
		CourseID:   course.ID,
		CourseCode: course.Code,
		At:         enrollment.EnrolledAt,
	})

	s.log.Info().
		Int("student_id", studentID).
		Str("course_code", course.Code).
		Int("credits", course.Credits).
		Msg("Enrollment accepted")

	return &model.ActiveEnrollment{Enrollment: *enrollment, Course: *course}, nil
}

// Withdraw removes a student's active enrollment for the given course.
func (s *EnrollmentService) Withdraw(ctx context.Context, studentID int, courseCode string) error {
	course, err := s.courseRepo.GetByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCourseNotFound
		}
		return err
	}

	withdrawn, err := s.enrollRepo.Withdraw(ctx, studentID, courseCode)
	if err != nil {
		return err
	}
	if !withdrawn {
		return ErrNotEnrolled
	}

	s.publishEvent(ctx, enrollmentEvent{
		Action:     "withdrawn",
		StudentID:  studentID,
		CourseID:   course.ID,
		CourseCode: course.Code,
		At:         time.Now(),
	})

	s.log.Info().
		Int("student_id", studentID).
		Str("course_code", courseCode).
		Msg("Enrollment withdrawn")

	return nil
}

// Plan returns the student's current study plan: active enrollments plus
// the credit total against the configured limit.
func (s *EnrollmentService) Plan(ctx context.Context, studentID int) (*model.StudyPlan, error) {
	enrollments, err := s.enrollRepo.ListActive(ctx, studentID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, e := range enrollments {
		total += e.Course.Credits
	}

	if enrollments == nil {
		enrollments = []model.ActiveEnrollment{}
	}

	return &model.StudyPlan{
		Enrollments:  enrollments,
		TotalCredits: total,
		CreditLimit:  s.cfg.CreditLimit,
	}, nil
}

// loadState snapshots the student's academic standing for the evaluator.
func (s *EnrollmentService) loadState(ctx context.Context, studentID int) (eligibility.AcademicState, error) {
	approvedCodes, err := s.studentRepo.ApprovedCourseCodes(ctx, studentID)
	if err != nil {
		return eligibility.AcademicState{}, fmt.Errorf("load approved courses: %w", err)
	}

	active, err := s.enrollRepo.ListActiveCourses(ctx, studentID)
	if err != nil {
		return eligibility.AcademicState{}, fmt.Errorf("load active enrollments: %w", err)
	}

	approved := make(map[string]struct{}, len(approvedCodes))
	for _, code := range approvedCodes {
		approved[code] = struct{}{}
	}

	return eligibility.AcademicState{
		ApprovedCourses: approved,
		ActiveCourses:   active,
		CreditLimit:     s.cfg.CreditLimit,
	}, nil
}

// publishEvent pushes the event to the audit persistence queue and the live
// registrar feed. Failures are logged, never surfaced to the student.
func (s *EnrollmentService) publishEvent(ctx context.Context, ev enrollmentEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal enrollment event")
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistEnrollmentAuditQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Msg("Queue enrollment audit event")
	}

	if err := s.rdb.Publish(ctx, config.CacheKey.EnrollmentFeedChannel(), raw).Err(); err != nil {
		s.log.Error().Err(err).Msg("Publish enrollment feed event")
	}
}
