package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz retrieves all questions for a quiz with their options, ordered
// by question_order. Options are loaded in a single second query and grouped
// in memory to avoid N+1.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question_type, question_text, question_image_url, question_order, marks,
		        negative_marking, time_limit_seconds, difficulty, hint, explanation,
		        created_at, updated_at
		 FROM questions WHERE quiz_id = $1
		 ORDER BY question_order`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.QuestionType, &q.QuestionText, &q.QuestionImageURL, &q.QuestionOrder, &q.Marks,
			&q.NegativeMarking, &q.TimeLimitSeconds, &q.Difficulty, &q.Hint, &q.Explanation,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.option_text, o.option_image_url, o.is_correct, o.option_order
		 FROM question_options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.quiz_id = $1
		 ORDER BY o.option_order`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.OptionImageURL, &o.IsCorrect, &o.OptionOrder); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// GetByID retrieves a single question with its options.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, question_type, question_text, question_image_url, question_order, marks,
		        negative_marking, time_limit_seconds, difficulty, hint, explanation,
		        created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuizID, &q.QuestionType, &q.QuestionText, &q.QuestionImageURL, &q.QuestionOrder, &q.Marks,
		&q.NegativeMarking, &q.TimeLimitSeconds, &q.Difficulty, &q.Hint, &q.Explanation,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, option_image_url, is_correct, option_order
		 FROM question_options WHERE question_id = $1
		 ORDER BY option_order`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.OptionImageURL, &o.IsCorrect, &o.OptionOrder); err != nil {
			return nil, err
		}
		q.Options = append(q.Options, o)
	}
	return q, rows.Err()
}

// CreateWithOptions inserts a question and its options in one transaction.
func (r *QuestionRepository) CreateWithOptions(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, question_type, question_text, question_image_url, question_order, marks,
		     negative_marking, time_limit_seconds, difficulty, hint, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		q.QuizID, q.QuestionType, q.QuestionText, q.QuestionImageURL, q.QuestionOrder, q.Marks,
		q.NegativeMarking, q.TimeLimitSeconds, q.Difficulty, q.Hint, q.Explanation,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, option_text, option_image_url, is_correct, option_order)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			o.QuestionID, o.OptionText, o.OptionImageURL, o.IsCorrect, o.OptionOrder,
		).Scan(&o.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateWithOptions replaces a question's fields and its options wholesale in
// one transaction. Old options are deleted and the new set inserted; option
// IDs are not preserved across updates.
func (r *QuestionRepository) UpdateWithOptions(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE questions SET question_type = $1, question_text = $2, question_image_url = $3,
		     question_order = $4, marks = $5, negative_marking = $6, time_limit_seconds = $7,
		     difficulty = $8, hint = $9, explanation = $10, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $11`,
		q.QuestionType, q.QuestionText, q.QuestionImageURL,
		q.QuestionOrder, q.Marks, q.NegativeMarking, q.TimeLimitSeconds,
		q.Difficulty, q.Hint, q.Explanation, q.ID,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM question_options WHERE question_id = $1`, q.ID); err != nil {
		return err
	}

	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO question_options (question_id, option_text, option_image_url, is_correct, option_order)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			o.QuestionID, o.OptionText, o.OptionImageURL, o.IsCorrect, o.OptionOrder,
		).Scan(&o.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Reorder assigns sequential question_order values following the given ID
// order. IDs not belonging to the quiz are ignored by the WHERE clause.
func (r *QuestionRepository) Reorder(ctx context.Context, quizID uuid.UUID, questionIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, id := range questionIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE questions SET question_order = $1, updated_at = CURRENT_TIMESTAMP
			 WHERE id = $2 AND quiz_id = $3`,
			i, id, quizID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a question. Its options cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
