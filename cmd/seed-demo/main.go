package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quizdeck/quizdeck-backend/internal/config"
	"github.com/quizdeck/quizdeck-backend/internal/database"
	"github.com/quizdeck/quizdeck-backend/internal/logger"
	"github.com/quizdeck/quizdeck-backend/internal/model"
	"github.com/quizdeck/quizdeck-backend/internal/repository"
	"github.com/quizdeck/quizdeck-backend/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	profileRepo := repository.NewProfileRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	quizService := service.NewQuizService(quizRepo, questionRepo, rdb, log)
	questionService := service.NewQuestionService(questionRepo, quizRepo, quizService, log)

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Demo Users ────────────────────────────────────────────────────
	adminID := seedUser(ctx, profileRepo, cfg.BcryptCost, log,
		"admin@quizdeck.local", "Demo Admin", "demo-admin-pass", model.RoleAdmin)

	for i := 1; i <= 10; i++ {
		seedUser(ctx, profileRepo, cfg.BcryptCost, log,
			fmt.Sprintf("student%d@quizdeck.local", i),
			fmt.Sprintf("Demo Student %d", i),
			"demo-student-pass", model.RoleStudent)
	}
	fmt.Println("Seeded 1 admin and 10 students")

	// ─── Demo Quiz ─────────────────────────────────────────────────────
	quiz, err := quizService.Create(ctx, adminID, &model.CreateQuizRequest{
		Title:             "World Geography Basics",
		Description:       "A short quiz covering capitals, continents and landmarks.",
		Difficulty:        model.DifficultyEasy,
		DurationMinutes:   10,
		ShowFeedback:      model.FeedbackAtEnd,
		PassingPercentage: 60,
		Category:          "Geography",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo quiz")
	}
	fmt.Printf("Created quiz '%s' (%s)\n", quiz.Title, quiz.ID)

	questions := demoQuestions()
	for i := range questions {
		if _, err := questionService.Create(ctx, quiz.ID, adminID, &questions[i]); err != nil {
			log.Fatal().Err(err).Int("question", i+1).Msg("Failed to create demo question")
		}
	}
	fmt.Printf("Created %d questions\n", len(questions))

	active := true
	if _, err := quizService.Update(ctx, quiz.ID, adminID, &model.UpdateQuizRequest{IsActive: &active}); err != nil {
		log.Fatal().Err(err).Msg("Failed to activate demo quiz")
	}
	fmt.Println("Quiz activated and cached")

	fmt.Println("\nSeed completed!")
	fmt.Println("Admin login:   admin@quizdeck.local / demo-admin-pass")
	fmt.Println("Student login: student1@quizdeck.local / demo-student-pass (1..10)")
}

// seedUser creates the account if the email is free and returns its ID
// either way, so reruns of the seeder are safe.
func seedUser(ctx context.Context, repo *repository.ProfileRepository, bcryptCost int, log zerolog.Logger, email, fullName, password string, role model.Role) int {
	existing, err := repo.GetByEmail(ctx, email)
	if err == nil {
		fmt.Printf("User %s already exists (ID %d), skipping\n", email, existing.ID)
		return existing.ID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to check existing user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.UserProfile{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := repo.Create(ctx, user); err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to create user")
	}
	return user.ID
}

func demoQuestions() []model.CreateQuestionRequest {
	return []model.CreateQuestionRequest{
		{
			QuestionType:  model.QuestionTypeSingleSelect,
			QuestionText:  "What is the capital of France?",
			QuestionOrder: 0,
			Marks:         2,
			Options: []model.OptionRequest{
				{OptionText: "Paris", IsCorrect: true, OptionOrder: 0},
				{OptionText: "Lyon", OptionOrder: 1},
				{OptionText: "Marseille", OptionOrder: 2},
				{OptionText: "Nice", OptionOrder: 3},
			},
		},
		{
			QuestionType:  model.QuestionTypeMultiSelect,
			QuestionText:  "Which of the following countries are in South America?",
			QuestionOrder: 1,
			Marks:         3,
			Options: []model.OptionRequest{
				{OptionText: "Brazil", IsCorrect: true, OptionOrder: 0},
				{OptionText: "Peru", IsCorrect: true, OptionOrder: 1},
				{OptionText: "Portugal", OptionOrder: 2},
				{OptionText: "Chile", IsCorrect: true, OptionOrder: 3},
			},
		},
		{
			QuestionType:  model.QuestionTypeTrueFalse,
			QuestionText:  "The Nile is the longest river in Europe.",
			QuestionOrder: 2,
			Marks:         1,
			Explanation:   "The Nile is in Africa. The longest river in Europe is the Volga.",
			Options: []model.OptionRequest{
				{OptionText: "True", OptionOrder: 0},
				{OptionText: "False", IsCorrect: true, OptionOrder: 1},
			},
		},
		{
			QuestionType:  model.QuestionTypeFillBlank,
			QuestionText:  "The largest desert in the world is the ____ desert.",
			QuestionOrder: 3,
			Marks:         2,
			Hint:          "It is cold, not hot.",
			Options: []model.OptionRequest{
				{OptionText: "Antarctic", IsCorrect: true, OptionOrder: 0},
				{OptionText: "Antarctica", IsCorrect: true, OptionOrder: 1},
			},
		},
		{
			QuestionType:  model.QuestionTypeShortAnswer,
			QuestionText:  "Name the mountain range that separates Europe from Asia.",
			QuestionOrder: 4,
			Marks:         2,
			Options: []model.OptionRequest{
				{OptionText: "Ural", IsCorrect: true, OptionOrder: 0},
				{OptionText: "Ural Mountains", IsCorrect: true, OptionOrder: 1},
				{OptionText: "The Urals", IsCorrect: true, OptionOrder: 2},
			},
		},
	}
}
