package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/attempt"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

func TestAnswerFromRequest(t *testing.T) {
	optA := uuid.New()
	optB := uuid.New()
	text := "the urals"
	empty := ""

	t.Run("multi choice", func(t *testing.T) {
		ans, err := answerFromRequest(&model.SubmitAnswerRequest{OptionIDs: []uuid.UUID{optA, optB}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mc, ok := ans.(attempt.MultiChoice)
		if !ok {
			t.Fatalf("expected MultiChoice, got %T", ans)
		}
		if len(mc.OptionIDs) != 2 {
			t.Errorf("expected 2 option IDs, got %d", len(mc.OptionIDs))
		}
	})

	t.Run("single choice", func(t *testing.T) {
		ans, err := answerFromRequest(&model.SubmitAnswerRequest{OptionID: &optA})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sc, ok := ans.(attempt.SingleChoice)
		if !ok {
			t.Fatalf("expected SingleChoice, got %T", ans)
		}
		if sc.OptionID != optA {
			t.Errorf("option ID not carried through")
		}
	})

	t.Run("multi wins over single when both set", func(t *testing.T) {
		ans, err := answerFromRequest(&model.SubmitAnswerRequest{
			OptionID:  &optA,
			OptionIDs: []uuid.UUID{optB},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := ans.(attempt.MultiChoice); !ok {
			t.Fatalf("expected MultiChoice, got %T", ans)
		}
	})

	t.Run("free text", func(t *testing.T) {
		ans, err := answerFromRequest(&model.SubmitAnswerRequest{Text: &text})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ft, ok := ans.(attempt.FreeText)
		if !ok {
			t.Fatalf("expected FreeText, got %T", ans)
		}
		if ft.Text != text {
			t.Errorf("text not carried through")
		}
	})

	t.Run("empty text is still an answer", func(t *testing.T) {
		// An explicitly submitted empty string reaches grading and
		// simply scores as wrong; only a fully empty payload errors.
		if _, err := answerFromRequest(&model.SubmitAnswerRequest{Text: &empty}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := answerFromRequest(&model.SubmitAnswerRequest{})
		if !errors.Is(err, ErrEmptyAnswer) {
			t.Fatalf("expected ErrEmptyAnswer, got %v", err)
		}
	})
}
