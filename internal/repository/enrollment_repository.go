package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/krs-backend/internal/model"
)

type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// ListActiveCourses returns the courses behind a student's active
// enrollments, with schedules loaded, in enrollment order. This is the
// active set the evaluator checks against.
func (r *EnrollmentRepository) ListActiveCourses(ctx context.Context, studentID int) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.code, c.name, c.credits, c.semester, c.created_at, c.updated_at
		 FROM enrollments e
		 JOIN courses c ON c.id = e.course_id
		 WHERE e.student_id = $1 AND e.status = 'active'
		 ORDER BY e.enrolled_at ASC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.Semester, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range courses {
		if err := r.attachSchedules(ctx, &courses[i]); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// ListActive returns the student's active enrollments joined with their
// courses, for the study-plan view.
func (r *EnrollmentRepository) ListActive(ctx context.Context, studentID int) ([]model.ActiveEnrollment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.student_id, e.course_id, e.status, e.enrolled_at,
		        c.id, c.code, c.name, c.credits, c.semester, c.created_at, c.updated_at
		 FROM enrollments e
		 JOIN courses c ON c.id = e.course_id
		 WHERE e.student_id = $1 AND e.status = 'active'
		 ORDER BY e.enrolled_at ASC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ActiveEnrollment
	for rows.Next() {
		var ae model.ActiveEnrollment
		if err := rows.Scan(
			&ae.Enrollment.ID, &ae.Enrollment.StudentID, &ae.Enrollment.CourseID,
			&ae.Enrollment.Status, &ae.Enrollment.EnrolledAt,
			&ae.Course.ID, &ae.Course.Code, &ae.Course.Name, &ae.Course.Credits,
			&ae.Course.Semester, &ae.Course.CreatedAt, &ae.Course.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ae)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := r.attachSchedules(ctx, &result[i].Course); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Insert appends a new active enrollment inside the caller's transaction.
// Only the enrollment service calls this, after a successful evaluation
// under the per-student advisory lock.
func (r *EnrollmentRepository) Insert(ctx context.Context, tx pgx.Tx, studentID, courseID int) (*model.Enrollment, error) {
	e := &model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentActive,
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO enrollments (student_id, course_id, status)
		 VALUES ($1, $2, 'active')
		 RETURNING id, enrolled_at`,
		studentID, courseID).
		Scan(&e.ID, &e.EnrolledAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Withdraw marks a student's active enrollment as withdrawn. Returns false
// when no active enrollment for the course exists.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, studentID int, courseCode string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE enrollments e SET status = 'withdrawn', withdrawn_at = NOW()
		 FROM courses c
		 WHERE c.id = e.course_id AND e.student_id = $1 AND c.code = $2 AND e.status = 'active'`,
		studentID, courseCode)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountActive returns the number of active enrollments across all students.
func (r *EnrollmentRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE status = 'active'`).Scan(&n)
	return n, err
}

func (r *EnrollmentRepository) attachSchedules(ctx context.Context, c *model.Course) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, day_of_week, start_min, end_min
		 FROM course_schedules WHERE course_id = $1
		 ORDER BY day_of_week, start_min ASC`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Day, &s.Start, &s.End); err != nil {
			return err
		}
		c.Schedules = append(c.Schedules, s)
	}
	return rows.Err()
}
