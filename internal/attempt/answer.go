package attempt

import (
	"github.com/google/uuid"
)

// Answer is the tagged variant for a student's raw answer. A question with
// no Answer recorded is unattempted; there is deliberately no "empty" case.
type Answer interface {
	isAnswer()
}

// SingleChoice is one selected option (single_select, true_false).
type SingleChoice struct {
	OptionID uuid.UUID
}

// MultiChoice is a set of selected options (multiple_select). Order carries
// no meaning; correctness is evaluated set-wise.
type MultiChoice struct {
	OptionIDs []uuid.UUID
}

// FreeText is a typed answer (fill_blank, short_answer).
type FreeText struct {
	Text string
}

func (SingleChoice) isAnswer() {}
func (MultiChoice) isAnswer()  {}
func (FreeText) isAnswer()     {}
