package service

import (
	"testing"

	"github.com/quizdeck/quizdeck-backend/internal/model"
)

func opts(correctness ...bool) []model.OptionRequest {
	out := make([]model.OptionRequest, len(correctness))
	for i, c := range correctness {
		out[i] = model.OptionRequest{OptionText: "option", IsCorrect: c, OptionOrder: i}
	}
	return out
}

func TestValidateOptions(t *testing.T) {
	cases := []struct {
		name    string
		qType   model.QuestionType
		options []model.OptionRequest
		wantErr bool
	}{
		{"single select valid", model.QuestionTypeSingleSelect, opts(false, true, false), false},
		{"single select no correct", model.QuestionTypeSingleSelect, opts(false, false), true},
		{"single select two correct", model.QuestionTypeSingleSelect, opts(true, true), true},
		{"single select one option", model.QuestionTypeSingleSelect, opts(true), true},
		{"multi select valid", model.QuestionTypeMultiSelect, opts(true, true, false), false},
		{"multi select single correct ok", model.QuestionTypeMultiSelect, opts(true, false), false},
		{"multi select one option", model.QuestionTypeMultiSelect, opts(true), true},
		{"true false valid", model.QuestionTypeTrueFalse, opts(false, true), false},
		{"true false three options", model.QuestionTypeTrueFalse, opts(false, true, false), true},
		{"true false both correct", model.QuestionTypeTrueFalse, opts(true, true), true},
		{"fill blank single answer", model.QuestionTypeFillBlank, opts(true), false},
		{"fill blank aliases", model.QuestionTypeFillBlank, opts(true, true, true), false},
		{"short answer valid", model.QuestionTypeShortAnswer, opts(true), false},
		{"short answer no correct", model.QuestionTypeShortAnswer, opts(false), true},
		{"unknown type", model.QuestionType("essay"), opts(true), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &model.CreateQuestionRequest{
				QuestionType: tc.qType,
				QuestionText: "q",
				Marks:        1,
				Options:      tc.options,
			}
			err := validateOptions(req)
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildQuestionDefaults(t *testing.T) {
	req := &model.CreateQuestionRequest{
		QuestionType: model.QuestionTypeSingleSelect,
		QuestionText: "What is 2+2?",
		Marks:        5,
		Options:      opts(false, true),
	}

	q := buildQuestion(req)

	if q.Difficulty != model.DifficultyMedium {
		t.Errorf("expected default difficulty medium, got %s", q.Difficulty)
	}
	if len(q.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(q.Options))
	}
	if !q.Options[1].IsCorrect {
		t.Error("expected second option to stay correct")
	}
}
