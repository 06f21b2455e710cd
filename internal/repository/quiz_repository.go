package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, created_by, title, description, difficulty, duration_minutes,
	shuffle_questions, shuffle_options, show_feedback, allow_review, allow_navigation,
	passing_percentage, max_attempts, is_active, is_archived, total_questions, total_marks,
	category, created_at, updated_at`

func scanQuiz(row interface{ Scan(...interface{}) error }) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.CreatedBy, &q.Title, &q.Description, &q.Difficulty, &q.DurationMinutes,
		&q.ShuffleQuestions, &q.ShuffleOptions, &q.ShowFeedback, &q.AllowReview, &q.AllowNavigation,
		&q.PassingPercentage, &q.MaxAttempts, &q.IsActive, &q.IsArchived, &q.TotalQuestions, &q.TotalMarks,
		&q.Category, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a quiz by its UUID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (created_by, title, description, difficulty, duration_minutes,
		     shuffle_questions, shuffle_options, show_feedback, allow_review, allow_navigation,
		     passing_percentage, max_attempts, is_active, category)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, is_archived, total_questions, total_marks, created_at, updated_at`,
		q.CreatedBy, q.Title, q.Description, q.Difficulty, q.DurationMinutes,
		q.ShuffleQuestions, q.ShuffleOptions, q.ShowFeedback, q.AllowReview, q.AllowNavigation,
		q.PassingPercentage, q.MaxAttempts, q.IsActive, q.Category,
	).Scan(&q.ID, &q.IsArchived, &q.TotalQuestions, &q.TotalMarks, &q.CreatedAt, &q.UpdatedAt)
}

// Update writes all mutable quiz fields. The service layer merges partial
// request payloads into the loaded quiz before calling this.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET title = $1, description = $2, difficulty = $3, duration_minutes = $4,
		     shuffle_questions = $5, shuffle_options = $6, show_feedback = $7, allow_review = $8,
		     allow_navigation = $9, passing_percentage = $10, max_attempts = $11, is_active = $12,
		     category = $13, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $14`,
		q.Title, q.Description, q.Difficulty, q.DurationMinutes,
		q.ShuffleQuestions, q.ShuffleOptions, q.ShowFeedback, q.AllowReview,
		q.AllowNavigation, q.PassingPercentage, q.MaxAttempts, q.IsActive,
		q.Category, q.ID,
	)
	return err
}

// SetArchived flips a quiz's archived flag. Archived quizzes stay queryable
// for historical attempt results but disappear from student listings.
func (r *QuizRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_archived = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		archived, id)
	return err
}

// UpdateTotals recomputes the denormalized question count and mark sum from
// the questions table. Called after every question create/update/delete.
func (r *QuizRepository) UpdateTotals(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET
		     total_questions = (SELECT COUNT(*) FROM questions WHERE quiz_id = $1),
		     total_marks = (SELECT COALESCE(SUM(marks), 0) FROM questions WHERE quiz_id = $1),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`, id)
	return err
}

// ListByCreatorPaginated retrieves quizzes filtered by creator with pagination.
// Pass creatorID=0 to list all quizzes.
func (r *QuizRepository) ListByCreatorPaginated(ctx context.Context, creatorID, limit, offset int) ([]model.Quiz, int, error) {
	countQuery := `SELECT COUNT(*) FROM quizzes WHERE NOT is_archived`
	var countArgs []interface{}
	if creatorID > 0 {
		countQuery += ` AND created_by = $1`
		countArgs = append(countArgs, creatorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE NOT is_archived`
	var args []interface{}
	argIdx := 1

	if creatorID > 0 {
		query += ` AND created_by = $1`
		args = append(args, creatorID)
		argIdx++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, total, rows.Err()
}

// ListActive returns all active, non-archived quizzes for the student catalog.
// Also used for cache prewarming on application startup.
func (r *QuizRepository) ListActive(ctx context.Context, category string, difficulty model.Difficulty) ([]model.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE is_active AND NOT is_archived`
	args := []interface{}{}
	if category != "" {
		args = append(args, category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	if difficulty != "" {
		args = append(args, difficulty)
		query += ` AND difficulty = $` + strconv.Itoa(len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// Delete removes a quiz. Questions, options, attempts and responses cascade.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	return err
}
