package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty enumerates quiz and question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// FeedbackTiming controls when correctness is revealed to the student.
type FeedbackTiming string

const (
	FeedbackImmediate       FeedbackTiming = "immediate"
	FeedbackAfterSubmission FeedbackTiming = "after_submission"
	FeedbackAtEnd           FeedbackTiming = "at_end"
)

// Quiz represents a quiz entity. Immutable for the duration of an attempt:
// attempts snapshot total_questions and total_marks at start time.
type Quiz struct {
	ID                uuid.UUID      `json:"id"`
	CreatedBy         int            `json:"created_by"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Difficulty        Difficulty     `json:"difficulty"`
	DurationMinutes   int            `json:"duration_minutes"`
	ShuffleQuestions  bool           `json:"shuffle_questions"`
	ShuffleOptions    bool           `json:"shuffle_options"`
	ShowFeedback      FeedbackTiming `json:"show_feedback"`
	AllowReview       bool           `json:"allow_review"`
	AllowNavigation   bool           `json:"allow_navigation"`
	PassingPercentage float64        `json:"passing_percentage"`
	MaxAttempts       *int           `json:"max_attempts,omitempty"`
	IsActive          bool           `json:"is_active"`
	IsArchived        bool           `json:"is_archived"`
	TotalQuestions    int            `json:"total_questions"`
	TotalMarks        float64        `json:"total_marks"`
	Category          string         `json:"category,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title             string         `json:"title" binding:"required,min=3,max=255"`
	Description       string         `json:"description" binding:"omitempty,max=2000"`
	Difficulty        Difficulty     `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	DurationMinutes   int            `json:"duration_minutes" binding:"required,min=1,max=480"`
	ShuffleQuestions  bool           `json:"shuffle_questions"`
	ShuffleOptions    bool           `json:"shuffle_options"`
	ShowFeedback      FeedbackTiming `json:"show_feedback" binding:"omitempty,oneof=immediate after_submission at_end"`
	AllowReview       *bool          `json:"allow_review"`
	AllowNavigation   *bool          `json:"allow_navigation"`
	PassingPercentage float64        `json:"passing_percentage" binding:"omitempty,min=0,max=100"`
	MaxAttempts       *int           `json:"max_attempts" binding:"omitempty,min=1"`
	Category          string         `json:"category" binding:"omitempty,max=100"`
}

// UpdateQuizRequest is the payload for updating an existing quiz.
type UpdateQuizRequest struct {
	Title             string          `json:"title" binding:"omitempty,min=3,max=255"`
	Description       *string         `json:"description" binding:"omitempty,max=2000"`
	Difficulty        Difficulty      `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	DurationMinutes   int             `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	ShuffleQuestions  *bool           `json:"shuffle_questions"`
	ShuffleOptions    *bool           `json:"shuffle_options"`
	ShowFeedback      *FeedbackTiming `json:"show_feedback" binding:"omitempty,oneof=immediate after_submission at_end"`
	AllowReview       *bool           `json:"allow_review"`
	AllowNavigation   *bool           `json:"allow_navigation"`
	PassingPercentage *float64        `json:"passing_percentage" binding:"omitempty,min=0,max=100"`
	MaxAttempts       *int            `json:"max_attempts" binding:"omitempty,min=1"`
	IsActive          *bool           `json:"is_active"`
	Category          *string         `json:"category" binding:"omitempty,max=100"`
}

// QuizPayload is the Redis-cached quiz sent to students (no correct answers).
type QuizPayload struct {
	QuizID          uuid.UUID            `json:"quiz_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description,omitempty"`
	DurationMinutes int                  `json:"duration_minutes"`
	ShowFeedback    FeedbackTiming       `json:"show_feedback"`
	AllowNavigation bool                 `json:"allow_navigation"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question stripped of correctness flags.
type QuestionForStudent struct {
	ID               uuid.UUID          `json:"id"`
	QuestionType     QuestionType       `json:"question_type"`
	QuestionText     string             `json:"question_text"`
	QuestionImageURL *string            `json:"question_image_url,omitempty"`
	QuestionOrder    int                `json:"question_order"`
	Marks            float64            `json:"marks"`
	Difficulty       Difficulty         `json:"difficulty"`
	Hint             string             `json:"hint,omitempty"`
	Options          []OptionForStudent `json:"options"`
}

// OptionForStudent is an option stripped of the correctness flag.
type OptionForStudent struct {
	ID             uuid.UUID `json:"id"`
	OptionText     string    `json:"option_text"`
	OptionImageURL *string   `json:"option_image_url,omitempty"`
	OptionOrder    int       `json:"option_order"`
}
