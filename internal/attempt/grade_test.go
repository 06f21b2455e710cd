package attempt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

func optIDs(q *model.Question, correct bool) []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range q.Options {
		if o.IsCorrect == correct {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func singleSelectQuestion(marks, penalty float64) *model.Question {
	q := &model.Question{
		ID:              uuid.New(),
		QuestionType:    model.QuestionTypeSingleSelect,
		QuestionText:    "What is the capital of France?",
		Marks:           marks,
		NegativeMarking: penalty,
	}
	q.Options = []model.Option{
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "Paris", IsCorrect: true, OptionOrder: 0},
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "Lyon", OptionOrder: 1},
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "Nice", OptionOrder: 2},
	}
	return q
}

func multiSelectQuestion(marks, penalty float64) *model.Question {
	q := &model.Question{
		ID:              uuid.New(),
		QuestionType:    model.QuestionTypeMultiSelect,
		QuestionText:    "Which of these are prime?",
		Marks:           marks,
		NegativeMarking: penalty,
	}
	q.Options = []model.Option{
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "2", IsCorrect: true, OptionOrder: 0},
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "4", OptionOrder: 1},
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "5", IsCorrect: true, OptionOrder: 2},
	}
	return q
}

func TestEvaluateSingleSelect(t *testing.T) {
	q := singleSelectQuestion(1, 0)
	correctID := optIDs(q, true)[0]
	wrongID := optIDs(q, false)[0]

	if !Evaluate(q, SingleChoice{OptionID: correctID}) {
		t.Error("correct option should evaluate true")
	}
	if Evaluate(q, SingleChoice{OptionID: wrongID}) {
		t.Error("wrong option should evaluate false")
	}
	if Evaluate(q, SingleChoice{OptionID: uuid.New()}) {
		t.Error("unknown option id should evaluate false")
	}
	// Variant mismatch is incorrect, never a panic.
	if Evaluate(q, MultiChoice{OptionIDs: []uuid.UUID{correctID}}) {
		t.Error("multi-choice answer to single-select should evaluate false")
	}
	if Evaluate(q, FreeText{Text: "Paris"}) {
		t.Error("free-text answer to single-select should evaluate false")
	}
}

func TestEvaluateMultiSelect(t *testing.T) {
	q := multiSelectQuestion(2, 0.5)
	correct := optIDs(q, true)
	wrong := optIDs(q, false)

	// Exact set match, order irrelevant.
	if !Evaluate(q, MultiChoice{OptionIDs: []uuid.UUID{correct[1], correct[0]}}) {
		t.Error("exact correct set should evaluate true regardless of order")
	}
	// Proper subset.
	if Evaluate(q, MultiChoice{OptionIDs: correct[:1]}) {
		t.Error("subset of correct set should evaluate false")
	}
	// Superset: {A,B,C} against correct {A,C}.
	superset := append(append([]uuid.UUID{}, correct...), wrong...)
	if Evaluate(q, MultiChoice{OptionIDs: superset}) {
		t.Error("superset of correct set should evaluate false")
	}
	// Duplicated selections collapse set-wise.
	if !Evaluate(q, MultiChoice{OptionIDs: []uuid.UUID{correct[0], correct[0], correct[1]}}) {
		t.Error("duplicate ids should not break set comparison")
	}
}

func TestEvaluateFreeText(t *testing.T) {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeFillBlank,
		Marks:        1,
	}
	q.Options = []model.Option{
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "Mitochondria", IsCorrect: true},
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "mitochondrion", IsCorrect: true},
	}

	cases := []struct {
		text string
		want bool
	}{
		{"Mitochondria", true},
		{"  mitochondria  ", true},
		{"MITOCHONDRION", true},
		{"ribosome", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Evaluate(q, FreeText{Text: tc.text}); got != tc.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestEvaluateTrueFalse(t *testing.T) {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeTrueFalse,
		Marks:        1,
	}
	q.Options = []model.Option{
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "True", IsCorrect: true, OptionOrder: 0},
		{ID: uuid.New(), QuestionID: q.ID, OptionText: "False", OptionOrder: 1},
	}
	if !Evaluate(q, SingleChoice{OptionID: q.Options[0].ID}) {
		t.Error("true option should evaluate true")
	}
	if Evaluate(q, SingleChoice{OptionID: q.Options[1].ID}) {
		t.Error("false option should evaluate false")
	}
}

func TestMarksForAndContribution(t *testing.T) {
	q := singleSelectQuestion(2, 0.5)

	if got := MarksFor(q, true, true); got != 2 {
		t.Errorf("correct: got %v, want 2", got)
	}
	if got := MarksFor(q, false, true); got != -0.5 {
		t.Errorf("submitted wrong: got %v, want -0.5", got)
	}
	// Unattempted questions are never penalized.
	if got := MarksFor(q, false, false); got != 0 {
		t.Errorf("unattempted: got %v, want 0", got)
	}

	if got := Contribution(-0.5); got != 0 {
		t.Errorf("negative award should contribute 0, got %v", got)
	}
	if got := Contribution(2); got != 2 {
		t.Errorf("positive award should contribute itself, got %v", got)
	}
}
