package attempt

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// State is the session lifecycle state.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateInProgress   State = "IN_PROGRESS"
	StateFinalizing   State = "FINALIZING"
	StateCompleted    State = "COMPLETED"
	StateAbandoned    State = "ABANDONED"
)

// Feedback is the per-question outcome revealed to the student when the
// quiz's feedback timing allows it.
type Feedback struct {
	Correct     bool   `json:"correct"`
	Message     string `json:"message"`
	Explanation string `json:"explanation,omitempty"`
}

// PaletteEntry describes one question slot in the navigation palette.
type PaletteEntry struct {
	Index    int  `json:"index"`
	Answered bool `json:"answered"`
	Flagged  bool `json:"flagged"`
	Current  bool `json:"current"`
}

// View is the externally visible snapshot of an in-progress session.
type View struct {
	AttemptID        uuid.UUID                 `json:"attempt_id"`
	State            State                     `json:"state"`
	CurrentIndex     int                       `json:"current_index"`
	TotalQuestions   int                       `json:"total_questions"`
	AnsweredCount    int                       `json:"answered_count"`
	RemainingSeconds int                       `json:"remaining_seconds"`
	Question         *model.QuestionForStudent `json:"question,omitempty"`
	Palette          []PaletteEntry            `json:"palette"`
}

// Session drives one student through one quiz attempt from start to a
// finalized result. It is exclusively owned: the caller must serialize all
// operations on it (the service layer holds one mutex per live session).
type Session struct {
	quiz      *model.Quiz
	questions []model.Question // authored order, snapshotted at start
	store     Store
	userID    int

	state    State
	attempt  *model.Attempt
	order    []int                // display order: indices into questions
	optOrder map[uuid.UUID][]int  // per-question option display order
	cursor   int                  // position within order
	answers  map[uuid.UUID]Answer // submitted, immutable once present
	staged   map[uuid.UUID]Answer // selected but not yet submitted
	flagged  map[uuid.UUID]struct{}
	inserted map[uuid.UUID]struct{} // response rows already written (finalize retry)

	remaining int // seconds until forced finalization
	elapsed   int // seconds since start, advanced by Tick
	viewedAt  int // elapsed value when the current question was entered
	timeSpent map[uuid.UUID]int
}

// NewSession initializes a session: loads the quiz's questions through the
// store, applies the shuffle settings, creates the persisted attempt row,
// and enters IN_PROGRESS. rnd may be nil, in which case a time-seeded
// source is used; tests inject a fixed source.
func NewSession(ctx context.Context, store Store, quiz *model.Quiz, userID int, rnd *rand.Rand) (*Session, error) {
	s := &Session{
		quiz:      quiz,
		store:     store,
		userID:    userID,
		state:     StateInitializing,
		optOrder:  make(map[uuid.UUID][]int),
		answers:   make(map[uuid.UUID]Answer),
		staged:    make(map[uuid.UUID]Answer),
		flagged:   make(map[uuid.UUID]struct{}),
		inserted:  make(map[uuid.UUID]struct{}),
		timeSpent: make(map[uuid.UUID]int),
	}

	questions, err := store.LoadQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, persistErr("load questions", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	s.questions = questions

	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s.order = make([]int, len(questions))
	for i := range s.order {
		s.order[i] = i
	}
	if quiz.ShuffleQuestions {
		// rand.Shuffle is a uniform Fisher-Yates permutation.
		rnd.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}

	for i := range questions {
		q := &questions[i]
		perm := make([]int, len(q.Options))
		for j := range perm {
			perm[j] = j
		}
		if quiz.ShuffleOptions {
			rnd.Shuffle(len(perm), func(a, b int) {
				perm[a], perm[b] = perm[b], perm[a]
			})
		}
		s.optOrder[q.ID] = perm
	}

	maxScore := 0.0
	for i := range questions {
		maxScore += questions[i].Marks
	}

	att, err := store.CreateAttempt(ctx, quiz.ID, userID, maxScore, len(questions))
	if err != nil {
		return nil, persistErr("create attempt", err)
	}
	s.attempt = att

	s.remaining = quiz.DurationMinutes * 60
	s.state = StateInProgress
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Attempt returns the persisted attempt record, reflecting final aggregates
// once the session completes.
func (s *Session) Attempt() *model.Attempt { return s.attempt }

// RemainingSeconds returns the countdown value.
func (s *Session) RemainingSeconds() int { return s.remaining }

// current returns the question at the cursor in display order.
func (s *Session) current() *model.Question {
	return &s.questions[s.order[s.cursor]]
}

// Select stages an answer for the current question without submitting it.
// Staged answers are shown back to the student but are never scored: on
// timeout only explicit submissions count.
func (s *Session) Select(ans Answer) {
	if s.state != StateInProgress || ans == nil {
		return
	}
	q := s.current()
	if _, done := s.answers[q.ID]; done {
		return
	}
	s.staged[q.ID] = ans
}

// SubmitAnswer records the answer for the current question. Submissions are
// immutable: a second submission for the same question fails with
// ErrAlreadyAnswered. When the quiz reveals feedback immediately, the
// per-question outcome is returned.
func (s *Session) SubmitAnswer(ans Answer) (*Feedback, error) {
	if s.state != StateInProgress {
		return nil, ErrSessionClosed
	}
	if ans == nil {
		return nil, nil
	}
	q := s.current()
	if _, done := s.answers[q.ID]; done {
		return nil, ErrAlreadyAnswered
	}

	s.answers[q.ID] = ans
	delete(s.staged, q.ID)
	s.timeSpent[q.ID] += s.elapsed - s.viewedAt
	s.viewedAt = s.elapsed

	if s.quiz.ShowFeedback != model.FeedbackImmediate {
		return nil, nil
	}
	correct := Evaluate(q, ans)
	fb := &Feedback{
		Correct:     correct,
		Message:     "Not quite right",
		Explanation: q.Explanation,
	}
	if correct {
		fb.Message = "Great job!"
	}
	return fb, nil
}

// Advance moves to the next question. Moving forward is always allowed.
func (s *Session) Advance() {
	if s.state != StateInProgress {
		return
	}
	if s.cursor < len(s.order)-1 {
		s.leaveCurrent()
		s.cursor++
	}
}

// Retreat moves to the previous question. Fails with ErrNavigationLocked
// when the quiz has navigation disabled.
func (s *Session) Retreat() error {
	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	if !s.quiz.AllowNavigation {
		return ErrNavigationLocked
	}
	if s.cursor > 0 {
		s.leaveCurrent()
		s.cursor--
	}
	return nil
}

// JumpTo moves the cursor to an arbitrary question index. Fails with
// ErrNavigationLocked when the quiz has navigation disabled; out-of-range
// indexes are a no-op.
func (s *Session) JumpTo(index int) error {
	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	if !s.quiz.AllowNavigation {
		return ErrNavigationLocked
	}
	if index < 0 || index >= len(s.order) || index == s.cursor {
		return nil
	}
	s.leaveCurrent()
	s.cursor = index
	return nil
}

func (s *Session) leaveCurrent() {
	q := s.current()
	s.timeSpent[q.ID] += s.elapsed - s.viewedAt
	s.viewedAt = s.elapsed
}

// ToggleFlag flips the review flag on the current question.
func (s *Session) ToggleFlag() {
	if s.state != StateInProgress {
		return
	}
	q := s.current()
	if _, ok := s.flagged[q.ID]; ok {
		delete(s.flagged, q.ID)
	} else {
		s.flagged[q.ID] = struct{}{}
	}
}

// Tick advances the countdown by one second. When the timer reaches zero
// the session finalizes exactly once, as if the student had submitted the
// quiz; ticks after the terminal state are no-ops. The returned bool
// reports whether the session reached COMPLETED during this tick.
func (s *Session) Tick(ctx context.Context) (bool, error) {
	if s.state != StateInProgress {
		return false, nil
	}
	s.elapsed++
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		return false, nil
	}
	if err := s.Finish(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Finish finalizes the attempt: grades every question in authored quiz
// order, persists one Response per submitted question, then writes the
// attempt aggregates, then bumps the student's cumulative counters. The
// aggregate update is sequenced after all response inserts so a reader
// never observes a completed attempt with missing responses.
//
// On a storage failure the session stays in FINALIZING and Finish may be
// called again; already-written responses are not re-inserted.
func (s *Session) Finish(ctx context.Context) error {
	switch s.state {
	case StateInProgress, StateFinalizing:
	default:
		return ErrSessionClosed
	}
	s.state = StateFinalizing

	var (
		score        float64
		correctCount int
		wrongCount   int
	)

	now := time.Now()
	for i := range s.questions {
		q := &s.questions[i]
		ans, submitted := s.answers[q.ID]

		correct := submitted && Evaluate(q, ans)
		awarded := MarksFor(q, correct, submitted)
		score += Contribution(awarded)

		if correct {
			correctCount++
		} else if submitted {
			wrongCount++
		}

		if !submitted {
			continue
		}
		if _, done := s.inserted[q.ID]; done {
			continue
		}

		resp := &model.Response{
			AttemptID:        s.attempt.ID,
			QuestionID:       q.ID,
			IsCorrect:        correct,
			MarksAwarded:     awarded,
			TimeTakenSeconds: s.timeSpent[q.ID],
			IsFlagged:        s.isFlagged(q.ID),
			AnsweredAt:       now,
		}
		switch a := ans.(type) {
		case SingleChoice:
			resp.SelectedOptions = []uuid.UUID{a.OptionID}
		case MultiChoice:
			resp.SelectedOptions = a.OptionIDs
		case FreeText:
			text := a.Text
			resp.UserAnswer = &text
		}

		if err := s.store.InsertResponse(ctx, resp); err != nil {
			return persistErr("insert response", err)
		}
		s.inserted[q.ID] = struct{}{}
	}

	percentage := 0.0
	if s.attempt.MaxScore > 0 {
		percentage = score / s.attempt.MaxScore * 100
	}
	passed := percentage >= s.quiz.PassingPercentage
	unattempted := len(s.questions) - correctCount - wrongCount
	timeTaken := s.quiz.DurationMinutes*60 - s.remaining

	fin := &model.FinalizeAttempt{
		Status:           model.AttemptStatusCompleted,
		Score:            score,
		Percentage:       percentage,
		Passed:           passed,
		CorrectAnswers:   correctCount,
		WrongAnswers:     wrongCount,
		Unattempted:      unattempted,
		TimeTakenSeconds: timeTaken,
	}
	if err := s.store.FinalizeAttempt(ctx, s.attempt.ID, fin); err != nil {
		return persistErr("finalize attempt", err)
	}

	if err := s.store.IncrementUserStats(ctx, s.userID, 1, score); err != nil {
		return persistErr("increment user stats", err)
	}

	s.attempt.Status = model.AttemptStatusCompleted
	s.attempt.Score = score
	s.attempt.Percentage = percentage
	s.attempt.Passed = passed
	s.attempt.CorrectAnswers = correctCount
	s.attempt.WrongAnswers = wrongCount
	s.attempt.Unattempted = unattempted
	s.attempt.TimeTakenSeconds = timeTaken
	s.attempt.CompletedAt = &now

	s.state = StateCompleted
	return nil
}

// Abandon exits the attempt without scoring. No responses are written, the
// student's counters stay untouched, and the attempt row is marked
// abandoned so it never surfaces as a scored attempt.
func (s *Session) Abandon(ctx context.Context) error {
	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	fin := &model.FinalizeAttempt{
		Status:           model.AttemptStatusAbandoned,
		TimeTakenSeconds: s.quiz.DurationMinutes*60 - s.remaining,
	}
	if err := s.store.FinalizeAttempt(ctx, s.attempt.ID, fin); err != nil {
		return persistErr("abandon attempt", err)
	}
	s.attempt.Status = model.AttemptStatusAbandoned
	s.state = StateAbandoned
	return nil
}

func (s *Session) isFlagged(qid uuid.UUID) bool {
	_, ok := s.flagged[qid]
	return ok
}

// View builds the student-facing snapshot: the current question with its
// options in display order (correctness stripped), the palette, and the
// countdown.
func (s *Session) View() *View {
	v := &View{
		AttemptID:        s.attempt.ID,
		State:            s.state,
		CurrentIndex:     s.cursor,
		TotalQuestions:   len(s.questions),
		AnsweredCount:    len(s.answers),
		RemainingSeconds: s.remaining,
		Palette:          make([]PaletteEntry, len(s.order)),
	}

	for i, qi := range s.order {
		q := &s.questions[qi]
		_, answered := s.answers[q.ID]
		v.Palette[i] = PaletteEntry{
			Index:    i,
			Answered: answered,
			Flagged:  s.isFlagged(q.ID),
			Current:  i == s.cursor,
		}
	}

	if s.state == StateInProgress {
		q := s.current()
		sq := &model.QuestionForStudent{
			ID:               q.ID,
			QuestionType:     q.QuestionType,
			QuestionText:     q.QuestionText,
			QuestionImageURL: q.QuestionImageURL,
			QuestionOrder:    q.QuestionOrder,
			Marks:            q.Marks,
			Difficulty:       q.Difficulty,
			Hint:             q.Hint,
			Options:          make([]model.OptionForStudent, 0, len(q.Options)),
		}
		for _, oi := range s.optOrder[q.ID] {
			opt := q.Options[oi]
			sq.Options = append(sq.Options, model.OptionForStudent{
				ID:             opt.ID,
				OptionText:     opt.OptionText,
				OptionImageURL: opt.OptionImageURL,
				OptionOrder:    opt.OptionOrder,
			})
		}
		v.Question = sq
	}
	return v
}

// DisplayOrder exposes the shuffled question order as question IDs.
func (s *Session) DisplayOrder() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.order))
	for i, qi := range s.order {
		ids[i] = s.questions[qi].ID
	}
	return ids
}
