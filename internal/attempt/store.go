package attempt

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// Domain errors.
var (
	// ErrNoQuestions is the setup failure: a quiz with zero questions
	// never enters IN_PROGRESS.
	ErrNoQuestions = errors.New("quiz has no questions to attempt")

	// ErrSessionClosed is returned by operations on a session that has
	// already completed or been abandoned.
	ErrSessionClosed = errors.New("attempt session is closed")

	// ErrAlreadyAnswered rejects a second submission for a question
	// whose answer is locked in.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrNavigationLocked rejects backward or arbitrary navigation when
	// the quiz has navigation disabled.
	ErrNavigationLocked = errors.New("navigation is disabled for this quiz")
)

// Store is the persistence boundary the session engine writes through.
// The service layer implements it over the repositories; tests implement
// it in memory. InsertResponse must be idempotent on
// (attempt_id, question_id) so a failed finalization can be retried.
type Store interface {
	LoadQuestions(ctx context.Context, quizID uuid.UUID) ([]model.Question, error)
	CreateAttempt(ctx context.Context, quizID uuid.UUID, userID int, maxScore float64, totalQuestions int) (*model.Attempt, error)
	InsertResponse(ctx context.Context, resp *model.Response) error
	FinalizeAttempt(ctx context.Context, attemptID uuid.UUID, fin *model.FinalizeAttempt) error
	IncrementUserStats(ctx context.Context, userID int, quizzesTaken int, scoreDelta float64) error
}

// PersistenceError wraps a failed Store call so callers can tell a storage
// fault apart from a rules violation and retry the finalize path.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("attempt persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
