package model

import (
	"errors"
	"time"
)

// Course represents a catalog course (mata kuliah). Courses are created at
// catalog-load time and never mutated by the enrollment flow.
type Course struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Credits  int    `json:"credits"`
	Semester int    `json:"semester"`
	// Prerequisites holds course codes in declaration order. The order
	// matters: the first unmet prerequisite is the one reported.
	Prerequisites []string   `json:"prerequisites"`
	Schedules     []Schedule `json:"schedules"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ErrInvalidCredits rejects non-positive credit weights at construction.
var ErrInvalidCredits = errors.New("course credits must be a positive integer")

// Validate checks the structural invariants of a course before it enters
// the catalog.
func (c *Course) Validate() error {
	if c.Credits < 1 {
		return ErrInvalidCredits
	}
	for _, s := range c.Schedules {
		if !s.Day.Valid() {
			return ErrInvalidDay
		}
		if s.End <= s.Start {
			return ErrInvalidInterval
		}
	}
	return nil
}

// ScheduleRequest is the wire form of a single schedule entry.
type ScheduleRequest struct {
	Day       string `json:"day" binding:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	StartTime string `json:"start_time" binding:"required,len=5"`
	EndTime   string `json:"end_time" binding:"required,len=5"`
}

// CreateCourseRequest is the payload for registering a new catalog course.
type CreateCourseRequest struct {
	Code          string            `json:"code" binding:"required,min=3,max=16"`
	Name          string            `json:"name" binding:"required,min=2,max=100"`
	Credits       int               `json:"credits" binding:"required,min=1,max=12"`
	Semester      int               `json:"semester" binding:"required,min=1,max=14"`
	Prerequisites []string          `json:"prerequisites" binding:"omitempty,dive,min=3,max=16"`
	Schedules     []ScheduleRequest `json:"schedules" binding:"omitempty,dive"`
}

// UpdateCourseRequest is the payload for updating an existing course.
type UpdateCourseRequest struct {
	Name          string            `json:"name" binding:"required,min=2,max=100"`
	Credits       int               `json:"credits" binding:"required,min=1,max=12"`
	Semester      int               `json:"semester" binding:"required,min=1,max=14"`
	Prerequisites []string          `json:"prerequisites" binding:"omitempty,dive,min=3,max=16"`
	Schedules     []ScheduleRequest `json:"schedules" binding:"omitempty,dive"`
}
