package attempt

import (
	"strings"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// Evaluate reports whether ans is a correct answer to q. It is total over
// every (question type, answer variant) pair: a variant that does not match
// the question type is simply incorrect, never an error.
func Evaluate(q *model.Question, ans Answer) bool {
	switch q.QuestionType {
	case model.QuestionTypeSingleSelect, model.QuestionTypeTrueFalse:
		sc, ok := ans.(SingleChoice)
		if !ok {
			return false
		}
		for _, opt := range q.Options {
			if opt.ID == sc.OptionID {
				return opt.IsCorrect
			}
		}
		return false

	case model.QuestionTypeMultiSelect:
		mc, ok := ans.(MultiChoice)
		if !ok {
			return false
		}
		correct := make(map[uuid.UUID]struct{})
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct[opt.ID] = struct{}{}
			}
		}
		selected := make(map[uuid.UUID]struct{}, len(mc.OptionIDs))
		for _, id := range mc.OptionIDs {
			selected[id] = struct{}{}
		}
		// All-or-nothing: any subset or superset mismatch is incorrect.
		if len(selected) != len(correct) {
			return false
		}
		for id := range selected {
			if _, ok := correct[id]; !ok {
				return false
			}
		}
		return true

	case model.QuestionTypeFillBlank, model.QuestionTypeShortAnswer:
		ft, ok := ans.(FreeText)
		if !ok {
			return false
		}
		given := strings.ToLower(strings.TrimSpace(ft.Text))
		if given == "" {
			return false
		}
		for _, opt := range q.Options {
			if opt.IsCorrect && strings.ToLower(strings.TrimSpace(opt.OptionText)) == given {
				return true
			}
		}
		return false
	}

	return false
}

// MarksFor computes the raw marks awarded for one question: full marks when
// correct, the negative penalty when a submitted answer is wrong, zero when
// never submitted. Unattempted questions are never penalized.
func MarksFor(q *model.Question, correct, submitted bool) float64 {
	switch {
	case correct:
		return q.Marks
	case submitted:
		return -q.NegativeMarking
	default:
		return 0
	}
}

// Contribution floors a question's awarded marks at zero for the attempt
// total: a penalty can wipe out the question's own marks but never drags
// other questions' scores down.
func Contribution(awarded float64) float64 {
	if awarded < 0 {
		return 0
	}
	return awarded
}
