package websocket

import "time"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventEnrollment Event = "enrollment"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// EnrollmentEvent mirrors the payload published on the enrollment feed
// channel by the enrollment service.
type EnrollmentEvent struct {
	Action     string    `json:"action"` // "enrolled" | "withdrawn"
	StudentID  int       `json:"student_id"`
	CourseID   int       `json:"course_id"`
	CourseCode string    `json:"course_code"`
	At         time.Time `json:"at"`
}

// FeedMessage is a single enrollment event as delivered to a registrar
// feed subscriber.
type FeedMessage struct {
	Event Event `json:"event"`
	EnrollmentEvent
}

type ErrorMessage struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongMessage struct {
	Event Event `json:"event"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}
