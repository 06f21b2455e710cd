package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository handles dashboard data access for both roles.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the admin dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (totalStudents, totalQuizzes, totalQuestions, totalAttempts int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users_profile WHERE role = 'student'),
			(SELECT COUNT(*) FROM quizzes WHERE NOT is_archived),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM quiz_attempts)`,
	).Scan(&totalStudents, &totalQuizzes, &totalQuestions, &totalAttempts)
	return
}

// QuizResultSummary aggregates attempt outcomes for one quiz.
type QuizResultSummary struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	AttemptCount   int       `json:"attempt_count"`
	AverageScore   *float64  `json:"average_score"`
	AveragePercent *float64  `json:"average_percent"`
	PassCount      int       `json:"pass_count"`
}

// GetQuizResultSummaries retrieves per-quiz attempt aggregates for quizzes
// with at least one completed attempt, most attempted first.
func (r *DashboardRepository) GetQuizResultSummaries(ctx context.Context, limit int) ([]QuizResultSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.title,
		        COUNT(a.id) AS attempt_count,
		        AVG(a.score) AS average_score,
		        AVG(a.percentage) AS average_percent,
		        COUNT(a.id) FILTER (WHERE a.passed) AS pass_count
		 FROM quizzes q
		 JOIN quiz_attempts a ON a.quiz_id = q.id AND a.status = 'completed'
		 GROUP BY q.id, q.title
		 ORDER BY attempt_count DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []QuizResultSummary
	for rows.Next() {
		var s QuizResultSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.AttemptCount, &s.AverageScore, &s.AveragePercent, &s.PassCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if summaries == nil {
		summaries = []QuizResultSummary{}
	}
	return summaries, rows.Err()
}

// StudentRecentResult is one row in a student's recent attempt history.
type StudentRecentResult struct {
	AttemptID   uuid.UUID  `json:"attempt_id"`
	QuizID      uuid.UUID  `json:"quiz_id"`
	QuizTitle   string     `json:"quiz_title"`
	Score       float64    `json:"score"`
	MaxScore    float64    `json:"max_score"`
	Percentage  float64    `json:"percentage"`
	Passed      bool       `json:"passed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// GetStudentRecentResults retrieves a student's last N completed attempts.
func (r *DashboardRepository) GetStudentRecentResults(ctx context.Context, userID, limit int) ([]StudentRecentResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.quiz_id, q.title, a.score, a.max_score, a.percentage, a.passed, a.completed_at
		 FROM quiz_attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id = $1 AND a.status = 'completed'
		 ORDER BY a.completed_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []StudentRecentResult
	for rows.Next() {
		var res StudentRecentResult
		if err := rows.Scan(&res.AttemptID, &res.QuizID, &res.QuizTitle, &res.Score, &res.MaxScore,
			&res.Percentage, &res.Passed, &res.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if results == nil {
		results = []StudentRecentResult{}
	}
	return results, rows.Err()
}
