package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/attempt"
	"github.com/quizdeck/quizdeck-backend/internal/config"
	"github.com/quizdeck/quizdeck-backend/internal/model"
	"github.com/quizdeck/quizdeck-backend/internal/repository"
	"github.com/quizdeck/quizdeck-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt lifecycle errors.
var (
	ErrAttemptInProgress  = errors.New("an attempt is already in progress")
	ErrMaxAttemptsReached = errors.New("maximum attempts reached for this quiz")
	ErrNoActiveAttempt    = errors.New("no attempt in progress")
	ErrNotAttemptOwner    = errors.New("attempt belongs to another user")
	ErrAttemptStillOpen   = errors.New("attempt has not finished yet")
	ErrEmptyAnswer        = errors.New("answer payload is empty")
)

// AttemptEventPublisher broadcasts finished attempts to external consumers.
// A nil publisher disables event publishing.
type AttemptEventPublisher interface {
	PublishAttemptCompleted(ctx context.Context, att *model.Attempt) error
}

// AttemptResult is the post-completion result view. Questions (with
// correctness and explanations) are included only when the quiz allows
// answer review.
type AttemptResult struct {
	Attempt   *model.Attempt   `json:"attempt"`
	Responses []model.Response `json:"responses"`
	Questions []model.Question `json:"questions,omitempty"`
}

// liveSession pairs an engine session with its timer goroutine. All engine
// calls go through mu; the engine itself is single-owner.
type liveSession struct {
	mu      sync.Mutex
	sess    *attempt.Session
	quiz    *model.Quiz
	userID  int
	stop    chan struct{}
	stopped bool
}

func (ls *liveSession) halt() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.stopped {
		ls.stopped = true
		close(ls.stop)
	}
}

// AttemptService owns all live attempt sessions. Each live session gets a
// one-second timer goroutine that drives the engine countdown; every other
// operation arrives through HTTP or WebSocket handlers and is serialized per
// session.
type AttemptService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	responseRepo *repository.ResponseRepository
	rdb          *redis.Client
	publisher    AttemptEventPublisher
	log          zerolog.Logger

	mu   sync.Mutex
	live map[int]*liveSession // keyed by user ID: one active attempt per user
}

// NewAttemptService creates a new AttemptService. publisher may be nil.
func NewAttemptService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	responseRepo *repository.ResponseRepository,
	rdb *redis.Client,
	publisher AttemptEventPublisher,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		responseRepo: responseRepo,
		rdb:          rdb,
		publisher:    publisher,
		log:          log.With().Str("component", "attempt_service").Logger(),
		live:         make(map[int]*liveSession),
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Store implementation backing the engine
// ────────────────────────────────────────────────────────────────────────────

// sqlStore adapts the repositories to the engine's persistence interface.
// User stat increments go through the Redis queue so the stats worker can
// batch them off the request path.
type sqlStore struct {
	questions *repository.QuestionRepository
	attempts  *repository.AttemptRepository
	responses *repository.ResponseRepository
	rdb       *redis.Client
}

func (st *sqlStore) LoadQuestions(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	return st.questions.ListByQuiz(ctx, quizID)
}

func (st *sqlStore) CreateAttempt(ctx context.Context, quizID uuid.UUID, userID int, maxScore float64, totalQuestions int) (*model.Attempt, error) {
	return st.attempts.Create(ctx, quizID, userID, maxScore, totalQuestions)
}

func (st *sqlStore) InsertResponse(ctx context.Context, resp *model.Response) error {
	return st.responses.Insert(ctx, resp)
}

func (st *sqlStore) FinalizeAttempt(ctx context.Context, attemptID uuid.UUID, fin *model.FinalizeAttempt) error {
	return st.attempts.Finalize(ctx, attemptID, fin)
}

func (st *sqlStore) IncrementUserStats(ctx context.Context, userID int, quizzesTaken int, scoreDelta float64) error {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":       userID,
		"quizzes_taken": quizzesTaken,
		"score_delta":   scoreDelta,
	})
	if err != nil {
		return err
	}
	return st.rdb.RPush(ctx, config.WorkerKey.PersistStatsQueue, payload).Err()
}

func (s *AttemptService) store() attempt.Store {
	return &sqlStore{
		questions: s.questionRepo,
		attempts:  s.attemptRepo,
		responses: s.responseRepo,
		rdb:       s.rdb,
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ────────────────────────────────────────────────────────────────────────────

// Start begins a new attempt for the user on the given quiz. The service
// mutex is held for the whole call: starts are rare, and the coarse lock is
// what guarantees one active attempt per user.
func (s *AttemptService) Start(ctx context.Context, quizID uuid.UUID, userID int) (*attempt.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live[userID]; ok {
		return nil, ErrAttemptInProgress
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive || quiz.IsArchived {
		return nil, ErrQuizNotAvailable
	}

	if quiz.MaxAttempts != nil {
		used, err := s.attemptRepo.CountByQuizAndUser(ctx, quizID, userID)
		if err != nil {
			return nil, err
		}
		if used >= *quiz.MaxAttempts {
			return nil, ErrMaxAttemptsReached
		}
	}

	sess, err := attempt.NewSession(ctx, s.store(), quiz, userID, nil)
	if err != nil {
		return nil, err
	}

	ls := &liveSession{
		sess:   sess,
		quiz:   quiz,
		userID: userID,
		stop:   make(chan struct{}),
	}
	s.live[userID] = ls

	// Active-attempt marker for other instances and ops tooling. TTL covers
	// the full duration plus a grace window.
	ttl := time.Duration(quiz.DurationMinutes+5) * time.Minute
	key := config.CacheKey.UserActiveAttemptKey(userID)
	if err := s.rdb.Set(ctx, key, sess.Attempt().ID.String(), ttl).Err(); err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Failed to set active attempt key")
	}

	go s.runTimer(ls)

	s.enqueueAudit(ctx, userID, "attempt.started", "quiz_attempt", sess.Attempt().ID.String(), nil)
	s.log.Info().
		Int("user_id", userID).
		Str("quiz_id", quizID.String()).
		Str("attempt_id", sess.Attempt().ID.String()).
		Msg("Attempt started")

	return sess.View(), nil
}

// runTimer drives one session's countdown at one-second resolution. When a
// tick trips the timeout the engine finalizes inside the tick; a finalization
// that failed earlier is retried on each subsequent tick.
func (s *AttemptService) runTimer(ls *liveSession) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ls.stop:
			return
		case <-ticker.C:
			ls.mu.Lock()
			var completed bool
			var err error
			if ls.sess.State() == attempt.StateFinalizing {
				err = ls.sess.Finish(context.Background())
				completed = err == nil
			} else {
				completed, err = ls.sess.Tick(context.Background())
			}
			att := ls.sess.Attempt()
			ls.mu.Unlock()

			if err != nil {
				s.log.Warn().Err(err).
					Str("attempt_id", att.ID.String()).
					Msg("Timeout finalization failed, will retry")
				continue
			}
			if completed {
				s.log.Info().
					Str("attempt_id", att.ID.String()).
					Msg("Attempt finalized by timeout")
				s.release(context.Background(), ls, att)
				return
			}
		}
	}
}

// release removes a terminal session from the registry and emits the
// completion side effects.
func (s *AttemptService) release(ctx context.Context, ls *liveSession, att *model.Attempt) {
	s.mu.Lock()
	if cur, ok := s.live[ls.userID]; ok && cur == ls {
		delete(s.live, ls.userID)
	}
	s.mu.Unlock()
	ls.halt()

	if err := s.rdb.Del(ctx, config.CacheKey.UserActiveAttemptKey(ls.userID)).Err(); err != nil {
		s.log.Warn().Err(err).Int("user_id", ls.userID).Msg("Failed to clear active attempt key")
	}

	if att.Status == model.AttemptStatusCompleted {
		if s.publisher != nil {
			if err := s.publisher.PublishAttemptCompleted(ctx, att); err != nil {
				s.log.Warn().Err(err).Str("attempt_id", att.ID.String()).Msg("Failed to publish completion event")
			}
		}
		details, _ := json.Marshal(map[string]interface{}{
			"score":      att.Score,
			"percentage": att.Percentage,
			"passed":     att.Passed,
		})
		s.enqueueAudit(ctx, ls.userID, "attempt.completed", "quiz_attempt", att.ID.String(), details)
	} else {
		s.enqueueAudit(ctx, ls.userID, "attempt.abandoned", "quiz_attempt", att.ID.String(), nil)
	}
}

// get returns the user's live session or ErrNoActiveAttempt.
func (s *AttemptService) get(userID int) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.live[userID]
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	return ls, nil
}

// ────────────────────────────────────────────────────────────────────────────
// In-attempt operations
// ────────────────────────────────────────────────────────────────────────────

// GetView returns the current session snapshot for the user.
func (s *AttemptService) GetView(userID int) (*attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.sess.View(), nil
}

// answerFromRequest maps the wire payload to an engine answer variant.
func answerFromRequest(req *model.SubmitAnswerRequest) (attempt.Answer, error) {
	switch {
	case len(req.OptionIDs) > 0:
		return attempt.MultiChoice{OptionIDs: req.OptionIDs}, nil
	case req.OptionID != nil:
		return attempt.SingleChoice{OptionID: *req.OptionID}, nil
	case req.Text != nil:
		return attempt.FreeText{Text: *req.Text}, nil
	default:
		return nil, ErrEmptyAnswer
	}
}

// Select stages an answer on the current question without committing it.
func (s *AttemptService) Select(userID int, req *model.SubmitAnswerRequest) (*attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	ans, err := answerFromRequest(req)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.sess.Select(ans)
	return ls.sess.View(), nil
}

// Submit commits an answer on the current question. Returns feedback when
// the quiz reveals it immediately.
func (s *AttemptService) Submit(userID int, req *model.SubmitAnswerRequest) (*attempt.Feedback, *attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, nil, err
	}
	ans, err := answerFromRequest(req)
	if err != nil {
		return nil, nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	fb, err := ls.sess.SubmitAnswer(ans)
	if err != nil {
		return nil, nil, err
	}
	return fb, ls.sess.View(), nil
}

// Advance moves to the next question.
func (s *AttemptService) Advance(userID int) (*attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.sess.Advance()
	return ls.sess.View(), nil
}

// Retreat moves to the previous question when navigation is allowed.
func (s *AttemptService) Retreat(userID int) (*attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.sess.Retreat(); err != nil {
		return nil, err
	}
	return ls.sess.View(), nil
}

// Jump moves the cursor to an arbitrary question index when navigation is
// allowed.
func (s *AttemptService) Jump(userID, index int) (*attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.sess.JumpTo(index); err != nil {
		return nil, err
	}
	return ls.sess.View(), nil
}

// ToggleFlag flips the review flag on the current question.
func (s *AttemptService) ToggleFlag(userID int) (*attempt.View, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.sess.ToggleFlag()
	return ls.sess.View(), nil
}

// Finish submits the attempt for final scoring. On a storage failure the
// session stays live in FINALIZING; the client (or the timer goroutine)
// retries without double-writing anything.
func (s *AttemptService) Finish(ctx context.Context, userID int) (*model.Attempt, error) {
	ls, err := s.get(userID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	if err := ls.sess.Finish(ctx); err != nil {
		ls.mu.Unlock()
		return nil, err
	}
	att := ls.sess.Attempt()
	ls.mu.Unlock()

	s.release(ctx, ls, att)
	s.log.Info().
		Int("user_id", userID).
		Str("attempt_id", att.ID.String()).
		Float64("score", att.Score).
		Msg("Attempt finished")
	return att, nil
}

// Abandon exits the attempt without scoring.
func (s *AttemptService) Abandon(ctx context.Context, userID int) error {
	ls, err := s.get(userID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	if err := ls.sess.Abandon(ctx); err != nil {
		ls.mu.Unlock()
		return err
	}
	att := ls.sess.Attempt()
	ls.mu.Unlock()

	s.release(ctx, ls, att)
	s.log.Info().Int("user_id", userID).Str("attempt_id", att.ID.String()).Msg("Attempt abandoned")
	return nil
}

// Shutdown stops all timer goroutines. Live sessions are lost; their attempt
// rows stay in_progress and never finalize.
func (s *AttemptService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*liveSession, 0, len(s.live))
	for _, ls := range s.live {
		sessions = append(sessions, ls)
	}
	s.mu.Unlock()

	for _, ls := range sessions {
		ls.halt()
	}
	if len(sessions) > 0 {
		s.log.Info().Int("count", len(sessions)).Msg("Stopped live attempt timers")
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Results and history
// ────────────────────────────────────────────────────────────────────────────

// GetResult returns the finalized result for one of the user's attempts.
// Question details with correctness are attached only when the quiz allows
// review.
func (s *AttemptService) GetResult(ctx context.Context, userID int, attemptID uuid.UUID) (*AttemptResult, error) {
	att, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if att.UserID != userID {
		return nil, ErrNotAttemptOwner
	}
	if att.Status == model.AttemptStatusInProgress {
		return nil, ErrAttemptStillOpen
	}

	responses, err := s.responseRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if responses == nil {
		responses = []model.Response{}
	}

	result := &AttemptResult{Attempt: att, Responses: responses}

	quiz, err := s.quizRepo.GetByID(ctx, att.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz.AllowReview && att.Status == model.AttemptStatusCompleted {
		questions, err := s.questionRepo.ListByQuiz(ctx, att.QuizID)
		if err != nil {
			return nil, err
		}
		result.Questions = questions
	}

	return result, nil
}

// History returns the user's attempt history, newest first.
func (s *AttemptService) History(ctx context.Context, userID, page, perPage int) ([]model.Attempt, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	attempts, total, err := s.attemptRepo.ListByUserPaginated(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return attempts, pagination, nil
}

// ListByQuiz returns all attempts on a quiz for the admin results view.
func (s *AttemptService) ListByQuiz(ctx context.Context, quizID uuid.UUID, page, perPage int) ([]model.Attempt, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	attempts, total, err := s.attemptRepo.ListByQuizPaginated(ctx, quizID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return attempts, pagination, nil
}

// enqueueAudit pushes an audit entry onto the worker queue. Audit writes are
// best-effort and never fail the request.
func (s *AttemptService) enqueueAudit(ctx context.Context, userID int, action, entityType, entityID string, details json.RawMessage) {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":     userID,
		"action":      action,
		"entity_type": entityType,
		"entity_id":   entityID,
		"details":     details,
	})
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.AuditLogQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("Failed to enqueue audit entry")
	}
}
