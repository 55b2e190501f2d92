package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/krs-backend/internal/model"
)

type CourseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// Create inserts a course with its prerequisites and schedules in one
// transaction. Prerequisite codes must already exist in the catalog.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO courses (code, name, credits, semester)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Code, c.Name, c.Credits, c.Semester).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertPrerequisites(ctx, tx, c.ID, c.Prerequisites); err != nil {
		return err
	}
	if err := insertSchedules(ctx, tx, c.ID, c.Schedules); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update replaces a course's fields, prerequisites and schedules.
func (r *CourseRepository) Update(ctx context.Context, c *model.Course) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE courses SET name = $1, credits = $2, semester = $3, updated_at = NOW() WHERE id = $4`,
		c.Name, c.Credits, c.Semester, c.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM course_prerequisites WHERE course_id = $1`, c.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM course_schedules WHERE course_id = $1`, c.ID); err != nil {
		return err
	}

	if err := insertPrerequisites(ctx, tx, c.ID, c.Prerequisites); err != nil {
		return err
	}
	if err := insertSchedules(ctx, tx, c.ID, c.Schedules); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CourseRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return err
}

// GetByCode loads a single course with ordered prerequisite codes and
// schedules. Returns pgx.ErrNoRows if the code is unknown.
func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var c model.Course
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, credits, semester, created_at, updated_at
		 FROM courses WHERE code = $1`, code).
		Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.Semester, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := r.attachDetails(ctx, []*model.Course{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAll loads the whole catalog with prerequisites and schedules,
// ordered by semester then code.
func (r *CourseRepository) GetAll(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, credits, semester, created_at, updated_at
		 FROM courses ORDER BY semester ASC, code ASC`)
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

	refs := make([]*model.Course, len(courses))
	for i := range courses {
		refs[i] = &courses[i]
	}
	if err := r.attachDetails(ctx, refs); err != nil {
		return nil, err
	}
	return courses, nil
}

// attachDetails loads prerequisite codes (in declared order) and schedules
// for the given courses in two queries.
func (r *CourseRepository) attachDetails(ctx context.Context, courses []*model.Course) error {
	if len(courses) == 0 {
		return nil
	}

	ids := make([]int, len(courses))
	byID := make(map[int]*model.Course, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	rows, err := r.pool.Query(ctx,
		`SELECT cp.course_id, pc.code
		 FROM course_prerequisites cp
		 JOIN courses pc ON pc.id = cp.prerequisite_id
		 WHERE cp.course_id = ANY($1)
		 ORDER BY cp.course_id, cp.position ASC`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var courseID int
		var code string
		if err := rows.Scan(&courseID, &code); err != nil {
			rows.Close()
			return err
		}
		byID[courseID].Prerequisites = append(byID[courseID].Prerequisites, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, course_id, day_of_week, start_min, end_min
		 FROM course_schedules
		 WHERE course_id = ANY($1)
		 ORDER BY course_id, day_of_week, start_min ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Day, &s.Start, &s.End); err != nil {
			return err
		}
		byID[s.CourseID].Schedules = append(byID[s.CourseID].Schedules, s)
	}
	return rows.Err()
}

func insertPrerequisites(ctx context.Context, tx pgx.Tx, courseID int, codes []string) error {
	for i, code := range codes {
		tag, err := tx.Exec(ctx,
			`INSERT INTO course_prerequisites (course_id, prerequisite_id, position)
			 SELECT $1, id, $2 FROM courses WHERE code = $3`,
			courseID, i, code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("unknown prerequisite course %q", code)
		}
	}
	return nil
}

func insertSchedules(ctx context.Context, tx pgx.Tx, courseID int, schedules []model.Schedule) error {
	for i := range schedules {
		err := tx.QueryRow(ctx,
			`INSERT INTO course_schedules (course_id, day_of_week, start_min, end_min)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			courseID, schedules[i].Day, schedules[i].Start, schedules[i].End).
			Scan(&schedules[i].ID)
		if err != nil {
			return err
		}
		schedules[i].CourseID = courseID
	}
	return nil
}
