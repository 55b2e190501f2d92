package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DayOfWeek identifies the weekday a schedule entry occupies.
type DayOfWeek string

const (
	DayMonday    DayOfWeek = "Monday"
	DayTuesday   DayOfWeek = "Tuesday"
	DayWednesday DayOfWeek = "Wednesday"
	DayThursday  DayOfWeek = "Thursday"
	DayFriday    DayOfWeek = "Friday"
	DaySaturday  DayOfWeek = "Saturday"
	DaySunday    DayOfWeek = "Sunday"
)

// Valid reports whether d is one of the seven known weekdays.
func (d DayOfWeek) Valid() bool {
	switch d {
	case DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday, DaySunday:
		return true
	}
	return false
}

// ClockTime is a wall-clock time of day stored as minutes since midnight.
// It marshals to and from "HH:MM".
type ClockTime int

// ParseClock parses a "HH:MM" string into a ClockTime. The whole string
// must match: single-digit hours and trailing characters are rejected.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Schedule is a weekly meeting slot of a course. Immutable after catalog load.
type Schedule struct {
	ID       int       `json:"id"`
	CourseID int       `json:"-"`
	Day      DayOfWeek `json:"day"`
	Start    ClockTime `json:"start_time"`
	End      ClockTime `json:"end_time"`
}

// Schedule construction errors.
var (
	ErrInvalidDay      = errors.New("invalid day of week")
	ErrInvalidInterval = errors.New("schedule end time must be after start time")
)

// NewSchedule builds a validated Schedule from wire-format fields.
// The end > start invariant is enforced here, at construction time.
func NewSchedule(day DayOfWeek, start, end string) (Schedule, error) {
	if !day.Valid() {
		return Schedule{}, ErrInvalidDay
	}
	s, err := ParseClock(start)
	if err != nil {
		return Schedule{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Schedule{}, err
	}
	if e <= s {
		return Schedule{}, ErrInvalidInterval
	}
	return Schedule{Day: day, Start: s, End: e}, nil
}

// Overlaps reports whether two schedules collide: same day and intersecting
// time ranges. Intervals are half-open, so back-to-back slots (one ending
// exactly when the other starts) do not overlap.
func (s Schedule) Overlaps(other Schedule) bool {
	if s.Day != other.Day {
		return false
	}
	return !(s.End <= other.Start || s.Start >= other.End)
}
