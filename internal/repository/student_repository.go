package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/krs-backend/internal/model"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (nim, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		s.NIM, s.Name, s.PasswordHash).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	var s model.Student
	err := r.pool.QueryRow(ctx,
		`SELECT id, nim, name, password_hash, created_at, updated_at
		 FROM students WHERE id = $1`, id).
		Scan(&s.ID, &s.NIM, &s.Name, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) GetByNIM(ctx context.Context, nim string) (*model.Student, error) {
	var s model.Student
	err := r.pool.QueryRow(ctx,
		`SELECT id, nim, name, password_hash, created_at, updated_at
		 FROM students WHERE nim = $1`, nim).
		Scan(&s.ID, &s.NIM, &s.Name, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) GetAll(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, nim, name, password_hash, created_at, updated_at
		 FROM students ORDER BY nim ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.NIM, &s.Name, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	if s.PasswordHash != "" {
		_, err := r.pool.Exec(ctx,
			`UPDATE students SET nim = $1, name = $2, password_hash = $3, updated_at = NOW() WHERE id = $4`,
			s.NIM, s.Name, s.PasswordHash, s.ID)
		return err
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET nim = $1, name = $2, updated_at = NOW() WHERE id = $3`,
		s.NIM, s.Name, s.ID)
	return err
}

func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}

// ApprovedCourseCodes returns the codes of all courses the student has
// passed. This is the prerequisite set consumed by the evaluator.
func (r *StudentRepository) ApprovedCourseCodes(ctx context.Context, studentID int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.code
		 FROM approved_courses ac
		 JOIN courses c ON c.id = ac.course_id
		 WHERE ac.student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// ApproveCourse records a passed course for the student and completes any
// active enrollment for it, so it no longer occupies credits or schedule.
func (r *StudentRepository) ApproveCourse(ctx context.Context, studentID int, courseCode string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var courseID int
	err = tx.QueryRow(ctx, `SELECT id FROM courses WHERE code = $1`, courseCode).Scan(&courseID)
	if err != nil {
		return fmt.Errorf("lookup course %q: %w", courseCode, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO approved_courses (student_id, course_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		studentID, courseID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE enrollments SET status = 'completed'
		 WHERE student_id = $1 AND course_id = $2 AND status = 'active'`,
		studentID, courseID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
