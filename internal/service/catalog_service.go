package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/krs-backend/internal/config"
	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stemsi/krs-backend/internal/repository"
)

// ErrInvalidSchedule wraps construction-time schedule violations so the
// HTTP layer can distinguish them from internal failures.
var ErrInvalidSchedule = errors.New("invalid course schedule")

// CatalogService manages the course catalog with a Redis read-through cache.
// The public catalog is read far more often than it changes, so reads are
// served from the cached payload and every mutation invalidates it.
type CatalogService struct {
	courseRepo *repository.CourseRepository
	rdb        *redis.Client
	cfg        *config.Config
	log        zerolog.Logger
}

func NewCatalogService(courseRepo *repository.CourseRepository, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		courseRepo: courseRepo,
		rdb:        rdb,
		cfg:        cfg,
		log:        log.With().Str("component", "catalog_service").Logger(),
	}
}

// GetAll returns the whole catalog, from cache when possible.
func (s *CatalogService) GetAll(ctx context.Context) ([]model.Course, error) {
	key := config.CacheKey.CatalogCoursesKey()

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var courses []model.Course
		if err := json.Unmarshal([]byte(cached), &courses); err == nil {
			return courses, nil
		}
		// Corrupted payload: fall through to the database.
		s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Catalog cache read failed")
	}

	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	s.cachePayload(ctx, key, courses)
	return courses, nil
}

// GetByCode returns a single course, from cache when possible.
func (s *CatalogService) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	key := config.CacheKey.CourseKey(code)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var course model.Course
		if err := json.Unmarshal([]byte(cached), &course); err == nil {
			return &course, nil
		}
		s.rdb.Del(ctx, key)
	}

	course, err := s.courseRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	s.cachePayload(ctx, key, course)
	return course, nil
}

// Create validates and registers a new catalog course.
func (s *CatalogService) Create(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	course, err := buildCourse(req.Code, req.Name, req.Credits, req.Semester, req.Prerequisites, req.Schedules)
	if err != nil {
		return nil, err
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.invalidate(ctx, course.Code)
	return course, nil
}

// Update replaces an existing course's mutable fields.
func (s *CatalogService) Update(ctx context.Context, code string, req *model.UpdateCourseRequest) (*model.Course, error) {
	existing, err := s.courseRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	course, err := buildCourse(code, req.Name, req.Credits, req.Semester, req.Prerequisites, req.Schedules)
	if err != nil {
		return nil, err
	}
	course.ID = existing.ID
	course.CreatedAt = existing.CreatedAt

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	s.invalidate(ctx, code)
	return course, nil
}

// Delete removes a course from the catalog.
func (s *CatalogService) Delete(ctx context.Context, code string) error {
	course, err := s.courseRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCourseNotFound
		}
		return err
	}

	if err := s.courseRepo.Delete(ctx, course.ID); err != nil {
		return err
	}

	s.invalidate(ctx, code)
	return nil
}

// PrewarmCache loads the catalog into Redis before traffic arrives, so the
// first burst of KRS filling does not stampede PostgreSQL.
func (s *CatalogService) PrewarmCache(ctx context.Context) error {
	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	s.cachePayload(ctx, config.CacheKey.CatalogCoursesKey(), courses)
	for i := range courses {
		s.cachePayload(ctx, config.CacheKey.CourseKey(courses[i].Code), &courses[i])
	}

	s.log.Info().Int("courses", len(courses)).Msg("Catalog cache prewarmed")
	return nil
}

func (s *CatalogService) cachePayload(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.cfg.CatalogCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}

func (s *CatalogService) invalidate(ctx context.Context, code string) {
	s.rdb.Del(ctx, config.CacheKey.CatalogCoursesKey(), config.CacheKey.CourseKey(code))
}

// buildCourse converts wire-format course fields into a validated model.
// Schedule invariants (known day, end > start) and the positive-credits
// rule fail here, before anything reaches the database.
func buildCourse(code, name string, credits, semester int, prereqs []string, schedules []model.ScheduleRequest) (*model.Course, error) {
	course := &model.Course{
		Code:          code,
		Name:          name,
		Credits:       credits,
		Semester:      semester,
		Prerequisites: prereqs,
	}

	for _, sr := range schedules {
		schedule, err := model.NewSchedule(model.DayOfWeek(sr.Day), sr.StartTime, sr.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		course.Schedules = append(course.Schedules, schedule)
	}

	if err := course.Validate(); err != nil {
		return nil, err
	}

	return course, nil
}
