package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/krs-backend/internal/config"
	"github.com/stemsi/krs-backend/internal/database"
	"github.com/stemsi/krs-backend/internal/logger"
	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stemsi/krs-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// seedCourse is the declarative form of one demo catalog entry.
type seedCourse struct {
	Code          string
	Name          string
	Credits       int
	Semester      int
	Prerequisites []string
	Day           model.DayOfWeek
	Start         string
	End           string
}

var demoCatalog = []seedCourse{
	{Code: "INF101", Name: "Dasar Pemrograman", Credits: 4, Semester: 1, Day: model.DayMonday, Start: "08:00", End: "10:00"},
	{Code: "INF201", Name: "Struktur Data", Credits: 4, Semester: 2, Prerequisites: []string{"INF101"}, Day: model.DayTuesday, Start: "10:00", End: "12:00"},
	{Code: "MAT101", Name: "Kalkulus I", Credits: 6, Semester: 1, Day: model.DayMonday, Start: "09:30", End: "11:30"},
}

const (
	demoStudentNIM      = "2301001"
	demoStudentName     = "Budi Santoso"
	demoStudentPassword = "password123"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	courseRepo := repository.NewCourseRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	fmt.Println("=== Seeding Demo Catalog ===")

	// Courses first, in declaration order so prerequisites resolve.
	for _, sc := range demoCatalog {
		if _, err := courseRepo.GetByCode(ctx, sc.Code); err == nil {
			fmt.Printf("  - %s already exists, skipping\n", sc.Code)
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			log.Fatal().Err(err).Str("code", sc.Code).Msg("Lookup failed")
		}

		schedule, err := model.NewSchedule(sc.Day, sc.Start, sc.End)
		if err != nil {
			log.Fatal().Err(err).Str("code", sc.Code).Msg("Invalid seed schedule")
		}

		course := &model.Course{
			Code:          sc.Code,
			Name:          sc.Name,
			Credits:       sc.Credits,
			Semester:      sc.Semester,
			Prerequisites: sc.Prerequisites,
			Schedules:     []model.Schedule{schedule},
		}
		if err := course.Validate(); err != nil {
			log.Fatal().Err(err).Str("code", sc.Code).Msg("Invalid seed course")
		}

		if err := courseRepo.Create(ctx, course); err != nil {
			log.Fatal().Err(err).Str("code", sc.Code).Msg("Create failed")
		}
		fmt.Printf("  - Created %s (%s, %d SKS)\n", course.Code, course.Name, course.Credits)
	}

	// Demo student.
	if _, err := studentRepo.GetByNIM(ctx, demoStudentNIM); err == nil {
		fmt.Printf("  - Student %s already exists, skipping\n", demoStudentNIM)
	} else if errors.Is(err, pgx.ErrNoRows) {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoStudentPassword), cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}

		student := &model.Student{
			NIM:          demoStudentNIM,
			Name:         demoStudentName,
			PasswordHash: string(hash),
		}
		if err := studentRepo.Create(ctx, student); err != nil {
			log.Fatal().Err(err).Msg("Create student failed")
		}
		fmt.Printf("  - Created student %s (%s), password: %s\n", student.NIM, student.Name, demoStudentPassword)
	} else {
		log.Fatal().Err(err).Msg("Student lookup failed")
	}

	fmt.Println("\nDone.")
}
