package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates supported question formats.
type QuestionType string

const (
	QuestionTypeSingleSelect QuestionType = "single_select"
	QuestionTypeMultiSelect  QuestionType = "multiple_select"
	QuestionTypeTrueFalse    QuestionType = "true_false"
	QuestionTypeFillBlank    QuestionType = "fill_blank"
	QuestionTypeShortAnswer  QuestionType = "short_answer"
)

// Question represents a single quiz question with its options.
type Question struct {
	ID               uuid.UUID    `json:"id"`
	QuizID           uuid.UUID    `json:"quiz_id"`
	QuestionType     QuestionType `json:"question_type"`
	QuestionText     string       `json:"question_text"`
	QuestionImageURL *string      `json:"question_image_url,omitempty"`
	QuestionOrder    int          `json:"question_order"`
	Marks            float64      `json:"marks"`
	NegativeMarking  float64      `json:"negative_marking"`
	TimeLimitSeconds *int         `json:"time_limit_seconds,omitempty"`
	Difficulty       Difficulty   `json:"difficulty"`
	Hint             string       `json:"hint,omitempty"`
	Explanation      string       `json:"explanation,omitempty"`
	Options          []Option     `json:"options,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Option represents one answer choice for a question. For fill_blank and
// short_answer questions the correct options carry the accepted answer text.
type Option struct {
	ID             uuid.UUID `json:"id"`
	QuestionID     uuid.UUID `json:"question_id"`
	OptionText     string    `json:"option_text"`
	OptionImageURL *string   `json:"option_image_url,omitempty"`
	IsCorrect      bool      `json:"is_correct"`
	OptionOrder    int       `json:"option_order"`
}

// OptionRequest is one option within a question create/update payload.
type OptionRequest struct {
	OptionText     string  `json:"option_text" binding:"required,min=1,max=1000"`
	OptionImageURL *string `json:"option_image_url" binding:"omitempty,max=500"`
	IsCorrect      bool    `json:"is_correct"`
	OptionOrder    int     `json:"option_order" binding:"min=0"`
}

// CreateQuestionRequest is the payload for adding a question to a quiz.
type CreateQuestionRequest struct {
	QuestionType     QuestionType    `json:"question_type" binding:"required,oneof=single_select multiple_select true_false fill_blank short_answer"`
	QuestionText     string          `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionImageURL *string         `json:"question_image_url" binding:"omitempty,max=500"`
	QuestionOrder    int             `json:"question_order" binding:"min=0"`
	Marks            float64         `json:"marks" binding:"required,gt=0"`
	NegativeMarking  float64         `json:"negative_marking" binding:"min=0"`
	TimeLimitSeconds *int            `json:"time_limit_seconds" binding:"omitempty,min=5"`
	Difficulty       Difficulty      `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Hint             string          `json:"hint" binding:"omitempty,max=500"`
	Explanation      string          `json:"explanation" binding:"omitempty,max=2000"`
	Options          []OptionRequest `json:"options" binding:"required,min=1,dive"`
}

// UpdateQuestionRequest replaces a question and its options wholesale.
type UpdateQuestionRequest = CreateQuestionRequest

// ReorderQuestionsRequest assigns new display positions to a quiz's questions.
type ReorderQuestionsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" binding:"required,min=1"`
}
