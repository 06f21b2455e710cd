package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// AttemptRepository handles quiz attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, quiz_id, user_id, attempt_number, status, score, max_score,
	percentage, passed, total_questions, correct_answers, wrong_answers, unattempted,
	time_taken_seconds, started_at, completed_at`

func scanAttempt(row interface{ Scan(...interface{}) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.AttemptNumber, &a.Status, &a.Score, &a.MaxScore,
		&a.Percentage, &a.Passed, &a.TotalQuestions, &a.CorrectAnswers, &a.WrongAnswers, &a.Unattempted,
		&a.TimeTakenSeconds, &a.StartedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new in-progress attempt. The attempt number is assigned
// atomically from the user's existing attempts on the same quiz.
func (r *AttemptRepository) Create(ctx context.Context, quizID uuid.UUID, userID int, maxScore float64, totalQuestions int) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, user_id, attempt_number, status, max_score, total_questions, unattempted)
		 SELECT $1, $2, COALESCE(MAX(attempt_number), 0) + 1, 'in_progress', $3, $4, $4
		 FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2
		 RETURNING `+attemptColumns,
		quizID, userID, maxScore, totalQuestions))
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id))
}

// CountByQuizAndUser returns how many attempts (any status) a user has made
// on a quiz. Used for max_attempts enforcement.
func (r *AttemptRepository) CountByQuizAndUser(ctx context.Context, quizID uuid.UUID, userID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2`,
		quizID, userID,
	).Scan(&n)
	return n, err
}

// Finalize writes the aggregate results and closes an attempt. It only
// touches rows still in progress, so a repeated call after a partial
// failure is harmless.
func (r *AttemptRepository) Finalize(ctx context.Context, id uuid.UUID, fin *model.FinalizeAttempt) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts SET status = $1, score = $2, percentage = $3, passed = $4,
		     correct_answers = $5, wrong_answers = $6, unattempted = $7,
		     time_taken_seconds = $8, completed_at = CURRENT_TIMESTAMP
		 WHERE id = $9 AND status = 'in_progress'`,
		fin.Status, fin.Score, fin.Percentage, fin.Passed,
		fin.CorrectAnswers, fin.WrongAnswers, fin.Unattempted,
		fin.TimeTakenSeconds, id,
	)
	return err
}

// ListByUserPaginated retrieves a user's attempt history, newest first.
func (r *AttemptRepository) ListByUserPaginated(ctx context.Context, userID, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE user_id = $1
		 ORDER BY started_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, total, rows.Err()
}

// ListByQuizPaginated retrieves all attempts on a quiz, newest first.
// Used by the admin results view.
func (r *AttemptRepository) ListByQuizPaginated(ctx context.Context, quizID uuid.UUID, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1`, quizID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE quiz_id = $1
		 ORDER BY started_at DESC LIMIT $2 OFFSET $3`, quizID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, total, rows.Err()
}
