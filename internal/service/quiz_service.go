package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/config"
	"github.com/quizdeck/quizdeck-backend/internal/model"
	"github.com/quizdeck/quizdeck-backend/internal/repository"
	"github.com/quizdeck/quizdeck-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrNotQuizAuthor    = errors.New("not the author of this quiz")
	ErrQuizNotAvailable = errors.New("quiz is not active")
	ErrNoQuestions      = errors.New("quiz has no questions")
)

// QuizService handles quiz business logic and Redis payload caching.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetByID retrieves a quiz by its UUID.
func (s *QuizService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return s.quizRepo.GetByID(ctx, id)
}

// ListByCreator retrieves quizzes for the admin list, filtered by creator.
func (s *QuizService) ListByCreator(ctx context.Context, creatorID, page, perPage int) ([]model.Quiz, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	quizzes, total, err := s.quizRepo.ListByCreatorPaginated(ctx, creatorID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return quizzes, pagination, nil
}

// ListActive retrieves active quizzes for the student catalog, optionally
// narrowed by category and difficulty.
func (s *QuizService) ListActive(ctx context.Context, category string, difficulty model.Difficulty) ([]model.Quiz, error) {
	quizzes, err := s.quizRepo.ListActive(ctx, category, difficulty)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	return quizzes, nil
}

// Create inserts a new quiz from an admin request.
func (s *QuizService) Create(ctx context.Context, creatorID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		CreatedBy:         creatorID,
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        req.Difficulty,
		DurationMinutes:   req.DurationMinutes,
		ShuffleQuestions:  req.ShuffleQuestions,
		ShuffleOptions:    req.ShuffleOptions,
		ShowFeedback:      req.ShowFeedback,
		AllowReview:       true,
		AllowNavigation:   true,
		PassingPercentage: req.PassingPercentage,
		MaxAttempts:       req.MaxAttempts,
		IsActive:          false,
		Category:          req.Category,
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = model.DifficultyMedium
	}
	if quiz.ShowFeedback == "" {
		quiz.ShowFeedback = model.FeedbackAtEnd
	}
	if req.AllowReview != nil {
		quiz.AllowReview = *req.AllowReview
	}
	if req.AllowNavigation != nil {
		quiz.AllowNavigation = *req.AllowNavigation
	}

	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, err
	}

	s.log.Info().Str("quiz_id", quiz.ID.String()).Int("creator", creatorID).Msg("Quiz created")
	return quiz, nil
}

// Update merges a partial request into the stored quiz and persists it.
// Activating a quiz with no questions is rejected, and an active quiz's
// cached student payload is refreshed.
func (s *QuizService) Update(ctx context.Context, quizID uuid.UUID, creatorID int, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return nil, ErrNotQuizAuthor
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Difficulty != "" {
		quiz.Difficulty = req.Difficulty
	}
	if req.DurationMinutes > 0 {
		quiz.DurationMinutes = req.DurationMinutes
	}
	if req.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.ShuffleOptions != nil {
		quiz.ShuffleOptions = *req.ShuffleOptions
	}
	if req.ShowFeedback != nil {
		quiz.ShowFeedback = *req.ShowFeedback
	}
	if req.AllowReview != nil {
		quiz.AllowReview = *req.AllowReview
	}
	if req.AllowNavigation != nil {
		quiz.AllowNavigation = *req.AllowNavigation
	}
	if req.PassingPercentage != nil {
		quiz.PassingPercentage = *req.PassingPercentage
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = req.MaxAttempts
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}
	if req.Category != nil {
		quiz.Category = *req.Category
	}

	if quiz.IsActive {
		// The payload cache must exist before students can see the quiz.
		if err := s.WarmQuizCache(ctx, quiz); err != nil {
			return nil, err
		}
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, err
	}

	s.log.Info().Str("quiz_id", quiz.ID.String()).Msg("Quiz updated")
	return quiz, nil
}

// Duplicate copies a quiz and all its questions into a new inactive draft
// owned by the caller.
func (s *QuizService) Duplicate(ctx context.Context, quizID uuid.UUID, creatorID int) (*model.Quiz, error) {
	src, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if creatorID != 0 && src.CreatedBy != creatorID {
		return nil, ErrNotQuizAuthor
	}

	copyQuiz := *src
	copyQuiz.Title = src.Title + " (Copy)"
	copyQuiz.IsActive = false
	if creatorID != 0 {
		copyQuiz.CreatedBy = creatorID
	}
	if err := s.quizRepo.Create(ctx, &copyQuiz); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		q := questions[i]
		q.QuizID = copyQuiz.ID
		if err := s.questionRepo.CreateWithOptions(ctx, &q); err != nil {
			return nil, err
		}
	}

	if err := s.quizRepo.UpdateTotals(ctx, copyQuiz.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("quiz_id", quizID.String()).
		Str("copy_id", copyQuiz.ID.String()).
		Int("questions", len(questions)).
		Msg("Quiz duplicated")
	return s.quizRepo.GetByID(ctx, copyQuiz.ID)
}

// Archive hides a quiz from all listings while keeping attempt history.
func (s *QuizService) Archive(ctx context.Context, quizID uuid.UUID, creatorID int) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return ErrNotQuizAuthor
	}

	if err := s.quizRepo.SetArchived(ctx, quizID, true); err != nil {
		return err
	}

	// Drop the student payload so no new attempt can start on it.
	if err := s.rdb.Del(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Failed to drop payload cache")
	}

	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz archived")
	return nil
}

// Delete removes a quiz and everything under it.
func (s *QuizService) Delete(ctx context.Context, quizID uuid.UUID, creatorID int) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	if creatorID != 0 && quiz.CreatedBy != creatorID {
		return ErrNotQuizAuthor
	}

	if err := s.quizRepo.Delete(ctx, quizID); err != nil {
		return err
	}

	if err := s.rdb.Del(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Failed to drop payload cache")
	}
	return nil
}

// WarmQuizCache loads a quiz's student-facing payload from PostgreSQL into
// Redis. Correct answers never enter the payload.
func (s *QuizService) WarmQuizCache(ctx context.Context, quiz *model.Quiz) error {
	questions, err := s.questionRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		opts := make([]model.OptionForStudent, len(q.Options))
		for j, o := range q.Options {
			opts[j] = model.OptionForStudent{
				ID:             o.ID,
				OptionText:     o.OptionText,
				OptionImageURL: o.OptionImageURL,
				OptionOrder:    o.OptionOrder,
			}
		}
		studentQuestions[i] = model.QuestionForStudent{
			ID:               q.ID,
			QuestionType:     q.QuestionType,
			QuestionText:     q.QuestionText,
			QuestionImageURL: q.QuestionImageURL,
			QuestionOrder:    q.QuestionOrder,
			Marks:            q.Marks,
			Difficulty:       q.Difficulty,
			Hint:             q.Hint,
			Options:          opts,
		}
	}

	payload := model.QuizPayload{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		Description:     quiz.Description,
		DurationMinutes: quiz.DurationMinutes,
		ShowFeedback:    quiz.ShowFeedback,
		AllowNavigation: quiz.AllowNavigation,
		Questions:       studentQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	key := config.CacheKey.QuizPayloadKey(quiz.ID.String())
	if err := s.rdb.Set(ctx, key, payloadJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all active quizzes into Redis on application startup.
func (s *QuizService) PrewarmAllCaches(ctx context.Context) error {
	quizzes, err := s.quizRepo.ListActive(ctx, "", "")
	if err != nil {
		return fmt.Errorf("list active quizzes: %w", err)
	}

	if len(quizzes) == 0 {
		s.log.Info().Msg("No active quizzes to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(quizzes)).Msg("Prewarming active quizzes...")

	warmed := 0
	for i := range quizzes {
		if err := s.WarmQuizCache(ctx, &quizzes[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("quiz_id", quizzes[i].ID.String()).
				Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(quizzes)).
		Msg("Prewarming complete")
	return nil
}

// GetQuizPayload retrieves the cached student payload from Redis.
func (s *QuizService) GetQuizPayload(ctx context.Context, quizID uuid.UUID) (*model.QuizPayload, error) {
	key := config.CacheKey.QuizPayloadKey(quizID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQuizNotAvailable
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.QuizPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}
