package service

import (
	"context"

	"github.com/quizdeck/quizdeck-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AdminDashboard is the admin overview payload.
type AdminDashboard struct {
	TotalStudents  int                            `json:"total_students"`
	TotalQuizzes   int                            `json:"total_quizzes"`
	TotalQuestions int                            `json:"total_questions"`
	TotalAttempts  int                            `json:"total_attempts"`
	QuizResults    []repository.QuizResultSummary `json:"quiz_results"`
}

// StudentDashboard is the student overview payload.
type StudentDashboard struct {
	TotalQuizzesTaken int                              `json:"total_quizzes_taken"`
	TotalScore        float64                          `json:"total_score"`
	RecentResults     []repository.StudentRecentResult `json:"recent_results"`
}

// DashboardService aggregates overview data for both roles.
type DashboardService struct {
	dashRepo    *repository.DashboardRepository
	profileRepo *repository.ProfileRepository
	log         zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(dashRepo *repository.DashboardRepository, profileRepo *repository.ProfileRepository, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		dashRepo:    dashRepo,
		profileRepo: profileRepo,
		log:         log.With().Str("component", "dashboard_service").Logger(),
	}
}

// GetAdminDashboard builds the admin overview.
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	students, quizzes, questions, attempts, err := s.dashRepo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	results, err := s.dashRepo.GetQuizResultSummaries(ctx, 10)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		TotalStudents:  students,
		TotalQuizzes:   quizzes,
		TotalQuestions: questions,
		TotalAttempts:  attempts,
		QuizResults:    results,
	}, nil
}

// GetStudentDashboard builds a student's overview from their profile counters
// and recent completed attempts.
func (s *DashboardService) GetStudentDashboard(ctx context.Context, userID int) (*StudentDashboard, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.dashRepo.GetStudentRecentResults(ctx, userID, 10)
	if err != nil {
		return nil, err
	}

	return &StudentDashboard{
		TotalQuizzesTaken: profile.TotalQuizzesTaken,
		TotalScore:        profile.TotalScore,
		RecentResults:     recent,
	}, nil
}
