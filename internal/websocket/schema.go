package websocket

import "github.com/quizdeck/quizdeck-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventTick      Event = "tick"
	EventFinalized Event = "finalized"
	EventPong      Event = "pong"
)

// TickResponse is pushed once per second while the attempt is live.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
	AnsweredCount    int   `json:"answered_count"`
	TotalQuestions   int   `json:"total_questions"`
}

// FinalizedResponse closes the stream when the attempt reaches a terminal
// state, whether by submission, timeout, or abandonment.
type FinalizedResponse struct {
	Event   Event          `json:"event"`
	Attempt *model.Attempt `json:"attempt"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
