package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// ResponseRepository handles student response data access.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// Insert writes one response row. The (attempt_id, question_id) unique
// constraint with DO NOTHING makes retried finalization idempotent: a row
// already written by an earlier partial run is silently kept.
func (r *ResponseRepository) Insert(ctx context.Context, resp *model.Response) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_responses
		     (attempt_id, question_id, user_answer, selected_options, is_correct,
		      marks_awarded, time_taken_seconds, is_flagged, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (attempt_id, question_id) DO NOTHING`,
		resp.AttemptID, resp.QuestionID, resp.UserAnswer, resp.SelectedOptions, resp.IsCorrect,
		resp.MarksAwarded, resp.TimeTakenSeconds, resp.IsFlagged, resp.AnsweredAt,
	)
	return err
}

// ListByAttempt retrieves all responses for an attempt in answer order.
func (r *ResponseRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Response, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, user_answer, selected_options, is_correct,
		        marks_awarded, time_taken_seconds, is_flagged, answered_at
		 FROM student_responses WHERE attempt_id = $1
		 ORDER BY answered_at`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		var resp model.Response
		if err := rows.Scan(&resp.ID, &resp.AttemptID, &resp.QuestionID, &resp.UserAnswer, &resp.SelectedOptions,
			&resp.IsCorrect, &resp.MarksAwarded, &resp.TimeTakenSeconds, &resp.IsFlagged, &resp.AnsweredAt); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
