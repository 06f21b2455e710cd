package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/model"
	"github.com/quizdeck/quizdeck-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrInvalidQuestion marks a question payload whose options don't fit its type.
var ErrInvalidQuestion = errors.New("question options do not match question type")

// QuestionService handles question authoring business logic. Every mutation
// recomputes the parent quiz's denormalized totals and, if the quiz is
// active, refreshes the cached student payload.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	quizRepo     *repository.QuizRepository
	quizService  *QuizService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	quizRepo *repository.QuizRepository,
	quizService *QuizService,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		quizRepo:     quizRepo,
		quizService:  quizService,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ListByQuiz retrieves a quiz's questions with options, in authored order.
func (s *QuestionService) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Create adds a question to a quiz.
func (s *QuestionService) Create(ctx context.Context, quizID uuid.UUID, creatorID int, req *model.CreateQuestionRequest) (*model.Question, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return nil, ErrNotQuizAuthor
	}

	if err := validateOptions(req); err != nil {
		return nil, err
	}

	question := buildQuestion(req)
	question.QuizID = quizID

	if err := s.questionRepo.CreateWithOptions(ctx, question); err != nil {
		return nil, err
	}

	if err := s.afterMutation(ctx, quiz); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("quiz_id", quizID.String()).
		Str("question_id", question.ID.String()).
		Msg("Question created")
	return question, nil
}

// Update replaces a question and its options wholesale.
func (s *QuestionService) Update(ctx context.Context, questionID uuid.UUID, creatorID int, req *model.UpdateQuestionRequest) (*model.Question, error) {
	existing, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByID(ctx, existing.QuizID)
	if err != nil {
		return nil, err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return nil, ErrNotQuizAuthor
	}

	if err := validateOptions(req); err != nil {
		return nil, err
	}

	question := buildQuestion(req)
	question.ID = questionID
	question.QuizID = existing.QuizID

	if err := s.questionRepo.UpdateWithOptions(ctx, question); err != nil {
		return nil, err
	}

	if err := s.afterMutation(ctx, quiz); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes a question from its quiz.
func (s *QuestionService) Delete(ctx context.Context, questionID uuid.UUID, creatorID int) error {
	existing, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	quiz, err := s.quizRepo.GetByID(ctx, existing.QuizID)
	if err != nil {
		return err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return ErrNotQuizAuthor
	}

	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		return err
	}

	return s.afterMutation(ctx, quiz)
}

// Reorder assigns new display positions to a quiz's questions.
func (s *QuestionService) Reorder(ctx context.Context, quizID uuid.UUID, creatorID int, questionIDs []uuid.UUID) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return ErrNotQuizAuthor
	}

	if err := s.questionRepo.Reorder(ctx, quizID, questionIDs); err != nil {
		return err
	}

	return s.afterMutation(ctx, quiz)
}

// afterMutation recomputes quiz totals and refreshes the payload cache for
// active quizzes so students never see a stale question set.
func (s *QuestionService) afterMutation(ctx context.Context, quiz *model.Quiz) error {
	if err := s.quizRepo.UpdateTotals(ctx, quiz.ID); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	if quiz.IsActive {
		if err := s.quizService.WarmQuizCache(ctx, quiz); err != nil && !errors.Is(err, ErrNoQuestions) {
			return err
		}
	}
	return nil
}

func buildQuestion(req *model.CreateQuestionRequest) *model.Question {
	question := &model.Question{
		QuestionType:     req.QuestionType,
		QuestionText:     req.QuestionText,
		QuestionImageURL: req.QuestionImageURL,
		QuestionOrder:    req.QuestionOrder,
		Marks:            req.Marks,
		NegativeMarking:  req.NegativeMarking,
		TimeLimitSeconds: req.TimeLimitSeconds,
		Difficulty:       req.Difficulty,
		Hint:             req.Hint,
		Explanation:      req.Explanation,
	}
	if question.Difficulty == "" {
		question.Difficulty = model.DifficultyMedium
	}
	question.Options = make([]model.Option, len(req.Options))
	for i, o := range req.Options {
		question.Options[i] = model.Option{
			OptionText:     o.OptionText,
			OptionImageURL: o.OptionImageURL,
			IsCorrect:      o.IsCorrect,
			OptionOrder:    o.OptionOrder,
		}
	}
	return question
}

// validateOptions enforces per-type option shape rules that struct tags
// cannot express.
func validateOptions(req *model.CreateQuestionRequest) error {
	correct := 0
	for _, o := range req.Options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return ErrInvalidQuestion
	}

	switch req.QuestionType {
	case model.QuestionTypeSingleSelect:
		if len(req.Options) < 2 || correct != 1 {
			return ErrInvalidQuestion
		}
	case model.QuestionTypeMultiSelect:
		if len(req.Options) < 2 {
			return ErrInvalidQuestion
		}
	case model.QuestionTypeTrueFalse:
		if len(req.Options) != 2 || correct != 1 {
			return ErrInvalidQuestion
		}
	case model.QuestionTypeFillBlank, model.QuestionTypeShortAnswer:
		// All options are accepted answers; at least one must be correct.
	default:
		return ErrInvalidQuestion
	}
	return nil
}
