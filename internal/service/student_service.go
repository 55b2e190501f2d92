package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stemsi/krs-backend/internal/repository"
)

// ErrStudentNotFound is returned when a student lookup misses.
var ErrStudentNotFound = errors.New("student not found")

// StudentService manages student accounts and the approved-courses set.
type StudentService struct {
	studentRepo *repository.StudentRepository
	log         zerolog.Logger
}

func NewStudentService(studentRepo *repository.StudentRepository, log zerolog.Logger) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

func (s *StudentService) GetAll(ctx context.Context) ([]model.Student, error) {
	return s.studentRepo.GetAll(ctx)
}

func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *StudentService) GetByNIM(ctx context.Context, nim string) (*model.Student, error) {
	student, err := s.studentRepo.GetByNIM(ctx, nim)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *StudentService) Create(ctx context.Context, student *model.Student) error {
	return s.studentRepo.Create(ctx, student)
}

func (s *StudentService) Update(ctx context.Context, student *model.Student) error {
	return s.studentRepo.Update(ctx, student)
}

func (s *StudentService) Delete(ctx context.Context, id int) error {
	return s.studentRepo.Delete(ctx, id)
}

// ApprovedCourseCodes returns the student's passed-course codes.
func (s *StudentService) ApprovedCourseCodes(ctx context.Context, studentID int) ([]string, error) {
	return s.studentRepo.ApprovedCourseCodes(ctx, studentID)
}

// ApproveCourse marks a course as passed for a student. Any active
// enrollment for the course is completed in the same transaction, so the
// course stops counting toward credits and schedule conflicts.
func (s *StudentService) ApproveCourse(ctx context.Context, studentID int, courseCode string) error {
	if err := s.studentRepo.ApproveCourse(ctx, studentID, courseCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCourseNotFound
		}
		return err
	}

	s.log.Info().
		Int("student_id", studentID).
		Str("course_code", courseCode).
		Msg("Course approved")
	return nil
}
