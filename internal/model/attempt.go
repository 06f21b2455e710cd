package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates quiz attempt states as persisted.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
	AttemptStatusAbandoned  AttemptStatus = "abandoned"
)

// Attempt represents one student's timed run through one quiz.
// total_questions and max_score are snapshotted at start time so later
// authoring edits cannot skew a finished result.
type Attempt struct {
	ID               uuid.UUID     `json:"id"`
	QuizID           uuid.UUID     `json:"quiz_id"`
	UserID           int           `json:"user_id"`
	AttemptNumber    int           `json:"attempt_number"`
	Status           AttemptStatus `json:"status"`
	Score            float64       `json:"score"`
	MaxScore         float64       `json:"max_score"`
	Percentage       float64       `json:"percentage"`
	Passed           bool          `json:"passed"`
	TotalQuestions   int           `json:"total_questions"`
	CorrectAnswers   int           `json:"correct_answers"`
	WrongAnswers     int           `json:"wrong_answers"`
	Unattempted      int           `json:"unattempted"`
	TimeTakenSeconds int           `json:"time_taken_seconds"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// Response records the answer and scoring outcome for one question within
// one attempt. Rows are append-only; a question without a submission never
// gets a row.
type Response struct {
	ID               uuid.UUID   `json:"id"`
	AttemptID        uuid.UUID   `json:"attempt_id"`
	QuestionID       uuid.UUID   `json:"question_id"`
	UserAnswer       *string     `json:"user_answer,omitempty"`
	SelectedOptions  []uuid.UUID `json:"selected_options,omitempty"`
	IsCorrect        bool        `json:"is_correct"`
	MarksAwarded     float64     `json:"marks_awarded"`
	TimeTakenSeconds int         `json:"time_taken_seconds"`
	IsFlagged        bool        `json:"is_flagged"`
	AnsweredAt       time.Time   `json:"answered_at"`
}

// FinalizeAttempt carries the aggregate values written when an attempt ends.
type FinalizeAttempt struct {
	Status           AttemptStatus
	Score            float64
	Percentage       float64
	Passed           bool
	CorrectAnswers   int
	WrongAnswers     int
	Unattempted      int
	TimeTakenSeconds int
}

// SubmitAnswerRequest is the payload for answering the current question.
// Exactly one of option_id, option_ids, or text must be set, matching the
// question type.
type SubmitAnswerRequest struct {
	OptionID  *uuid.UUID  `json:"option_id"`
	OptionIDs []uuid.UUID `json:"option_ids"`
	Text      *string     `json:"text" binding:"omitempty,max=2000"`
}

// JumpRequest moves the session cursor to an explicit question index.
type JumpRequest struct {
	Index int `json:"index" binding:"min=0"`
}
