package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"08:00", 480, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"09:30", 570, false},
		{"24:00", 0, true},
		{"08:60", 0, true},
		{"-1:00", 0, true},
		{"morning", 0, true},
		{"8:00", 0, true},
		{"08:0", 0, true},
		{"08:00xyz", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestClockTime_JSONRoundTrip(t *testing.T) {
	s, err := NewSchedule(DayMonday, "08:00", "10:00")
	require.NoError(t, err)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"start_time":"08:00"`)
	assert.Contains(t, string(raw), `"end_time":"10:00"`)

	var back Schedule
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s.Start, back.Start)
	assert.Equal(t, s.End, back.End)
}

func TestNewSchedule_Invariants(t *testing.T) {
	_, err := NewSchedule(DayMonday, "10:00", "08:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewSchedule(DayMonday, "10:00", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewSchedule("Someday", "08:00", "10:00")
	assert.ErrorIs(t, err, ErrInvalidDay)

	s, err := NewSchedule(DaySaturday, "13:15", "15:45")
	require.NoError(t, err)
	assert.Equal(t, DaySaturday, s.Day)
	assert.Equal(t, "13:15", s.Start.String())
}

func TestSchedule_Overlaps(t *testing.T) {
	mk := func(day DayOfWeek, start, end string) Schedule {
		s, err := NewSchedule(day, start, end)
		require.NoError(t, err)
		return s
	}

	a := mk(DayMonday, "08:00", "10:00")

	assert.True(t, a.Overlaps(mk(DayMonday, "09:30", "11:30")))
	assert.True(t, a.Overlaps(mk(DayMonday, "07:00", "08:30")))
	assert.True(t, a.Overlaps(mk(DayMonday, "08:30", "09:00"))) // contained
	assert.True(t, a.Overlaps(mk(DayMonday, "07:00", "11:00"))) // containing

	// Half-open boundaries.
	assert.False(t, a.Overlaps(mk(DayMonday, "10:00", "12:00")))
	assert.False(t, a.Overlaps(mk(DayMonday, "06:00", "08:00")))

	// Other day, same times.
	assert.False(t, a.Overlaps(mk(DayFriday, "08:00", "10:00")))

	// Symmetry.
	b := mk(DayMonday, "09:30", "11:30")
	assert.Equal(t, a.Overlaps(b), b.Overlaps(a))
}

func TestCourse_Validate(t *testing.T) {
	ok := Course{Code: "INF101", Name: "Programming I", Credits: 4}
	assert.NoError(t, ok.Validate())

	zero := Course{Code: "INF101", Credits: 0}
	assert.ErrorIs(t, zero.Validate(), ErrInvalidCredits)

	negative := Course{Code: "INF101", Credits: -3}
	assert.ErrorIs(t, negative.Validate(), ErrInvalidCredits)

	badSlot := Course{Code: "INF101", Credits: 4, Schedules: []Schedule{
		{Day: DayMonday, Start: 600, End: 480},
	}}
	assert.ErrorIs(t, badSlot.Validate(), ErrInvalidInterval)
}
