package attempt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

// fakeStore is an in-memory Store recording every call for assertions.
type fakeStore struct {
	questions []model.Question

	attempt   *model.Attempt
	responses []*model.Response
	finalized *model.FinalizeAttempt
	statsUser int
	statsInc  int
	statsSum  float64

	// callLog records store operations in order, to verify sequencing.
	callLog []string

	failInsertAfter int // fail InsertResponse once this many rows exist (-1 = never)
	failFinalize    bool
}

func newFakeStore(questions []model.Question) *fakeStore {
	return &fakeStore{questions: questions, failInsertAfter: -1}
}

func (f *fakeStore) LoadQuestions(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	return f.questions, nil
}

func (f *fakeStore) CreateAttempt(_ context.Context, quizID uuid.UUID, userID int, maxScore float64, totalQuestions int) (*model.Attempt, error) {
	f.callLog = append(f.callLog, "create")
	f.attempt = &model.Attempt{
		ID:             uuid.New(),
		QuizID:         quizID,
		UserID:         userID,
		AttemptNumber:  1,
		Status:         model.AttemptStatusInProgress,
		MaxScore:       maxScore,
		TotalQuestions: totalQuestions,
		StartedAt:      time.Now(),
	}
	return f.attempt, nil
}

func (f *fakeStore) InsertResponse(_ context.Context, resp *model.Response) error {
	if f.failInsertAfter >= 0 && len(f.responses) >= f.failInsertAfter {
		return errors.New("connection reset")
	}
	// Idempotency contract: duplicate (attempt, question) rows are a bug.
	for _, r := range f.responses {
		if r.AttemptID == resp.AttemptID && r.QuestionID == resp.QuestionID {
			return fmt.Errorf("duplicate response for question %s", resp.QuestionID)
		}
	}
	f.callLog = append(f.callLog, "response")
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeStore) FinalizeAttempt(_ context.Context, _ uuid.UUID, fin *model.FinalizeAttempt) error {
	if f.failFinalize {
		return errors.New("connection reset")
	}
	f.callLog = append(f.callLog, "finalize")
	f.finalized = fin
	return nil
}

func (f *fakeStore) IncrementUserStats(_ context.Context, userID, quizzesTaken int, scoreDelta float64) error {
	f.callLog = append(f.callLog, "stats")
	f.statsUser = userID
	f.statsInc += quizzesTaken
	f.statsSum += scoreDelta
	return nil
}

func testQuiz(marks []float64, penalty float64) (*model.Quiz, []model.Question) {
	quiz := &model.Quiz{
		ID:                uuid.New(),
		Title:             "Unit Quiz",
		DurationMinutes:   10,
		ShowFeedback:      model.FeedbackAtEnd,
		AllowNavigation:   true,
		PassingPercentage: 50,
	}
	questions := make([]model.Question, len(marks))
	for i, m := range marks {
		q := model.Question{
			ID:              uuid.New(),
			QuizID:          quiz.ID,
			QuestionType:    model.QuestionTypeSingleSelect,
			QuestionText:    fmt.Sprintf("Question %d", i+1),
			QuestionOrder:   i,
			Marks:           m,
			NegativeMarking: penalty,
		}
		q.Options = []model.Option{
			{ID: uuid.New(), QuestionID: q.ID, OptionText: "right", IsCorrect: true, OptionOrder: 0},
			{ID: uuid.New(), QuestionID: q.ID, OptionText: "wrong", OptionOrder: 1},
		}
		questions[i] = q
	}
	quiz.TotalQuestions = len(questions)
	for _, q := range questions {
		quiz.TotalMarks += q.Marks
	}
	return quiz, questions
}

func correctOption(q *model.Question) uuid.UUID {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	panic("question has no correct option")
}

func wrongOption(q *model.Question) uuid.UUID {
	for _, o := range q.Options {
		if !o.IsCorrect {
			return o.ID
		}
	}
	panic("question has no wrong option")
}

func TestNewSessionNoQuestions(t *testing.T) {
	quiz, _ := testQuiz(nil, 0)
	store := newFakeStore(nil)

	_, err := NewSession(context.Background(), store, quiz, 1, nil)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if store.attempt != nil {
		t.Error("no attempt row should be created for an empty quiz")
	}
}

// The worked example from the scoring design: 3 questions, marks [1,1,2],
// no penalty, passing 50%. Correct, wrong, unanswered -> score 1 of 4,
// 25%, failed, counts 1/1/1.
func TestFinishWorkedExample(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1, 2}, 0)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 7, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	s.Advance()
	s.SubmitAnswer(SingleChoice{OptionID: wrongOption(&questions[1])})
	// Q3 left unanswered.

	if err := s.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	fin := store.finalized
	if fin == nil {
		t.Fatal("attempt was not finalized")
	}
	if fin.Score != 1 {
		t.Errorf("score = %v, want 1", fin.Score)
	}
	if s.Attempt().MaxScore != 4 {
		t.Errorf("max score = %v, want 4", s.Attempt().MaxScore)
	}
	if fin.Percentage != 25 {
		t.Errorf("percentage = %v, want 25", fin.Percentage)
	}
	if fin.Passed {
		t.Error("25%% should not pass a 50%% threshold")
	}
	if fin.CorrectAnswers != 1 || fin.WrongAnswers != 1 || fin.Unattempted != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1",
			fin.CorrectAnswers, fin.WrongAnswers, fin.Unattempted)
	}
	if got := fin.CorrectAnswers + fin.WrongAnswers + fin.Unattempted; got != 3 {
		t.Errorf("count partition = %d, want total questions 3", got)
	}
	// Only answered questions get a response row.
	if len(store.responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(store.responses))
	}
	if got := store.statsInc; got != 1 {
		t.Errorf("quizzes taken increment = %d, want 1", got)
	}
	if store.statsSum != 1 {
		t.Errorf("total score increment = %v, want 1", store.statsSum)
	}
	if s.State() != StateCompleted {
		t.Errorf("state = %s, want COMPLETED", s.State())
	}
}

func TestNegativeMarkingFloorsPerQuestion(t *testing.T) {
	quiz, questions := testQuiz([]float64{2, 2}, 1)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	s.Advance()
	s.SubmitAnswer(SingleChoice{OptionID: wrongOption(&questions[1])})

	if err := s.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// Wrong answer records -1 but contributes 0; total stays 2, not 1.
	if store.finalized.Score != 2 {
		t.Errorf("score = %v, want 2 (penalty floored per question)", store.finalized.Score)
	}
	var wrongResp *model.Response
	for _, r := range store.responses {
		if !r.IsCorrect {
			wrongResp = r
		}
	}
	if wrongResp == nil {
		t.Fatal("missing response for wrong answer")
	}
	if wrongResp.MarksAwarded != -1 {
		t.Errorf("recorded marks = %v, want -1", wrongResp.MarksAwarded)
	}
}

func TestSubmitAnswerImmutable(t *testing.T) {
	quiz, questions := testQuiz([]float64{1}, 0)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if _, err := s.SubmitAnswer(SingleChoice{OptionID: wrongOption(&questions[0])}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	// The answer is locked in: a second submission is rejected.
	fb, err := s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	if !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("resubmission err = %v, want ErrAlreadyAnswered", err)
	}
	if fb != nil {
		t.Error("resubmission should not produce feedback")
	}

	if err := s.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if store.finalized.Score != 0 {
		t.Errorf("score = %v, want 0 (first submission wins)", store.finalized.Score)
	}
	if store.finalized.WrongAnswers != 1 {
		t.Errorf("wrong = %d, want 1", store.finalized.WrongAnswers)
	}
}

func TestImmediateFeedback(t *testing.T) {
	quiz, questions := testQuiz([]float64{1}, 0)
	quiz.ShowFeedback = model.FeedbackImmediate
	questions[0].Explanation = "Because reasons."
	store := newFakeStore(questions)

	s, err := NewSession(context.Background(), store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	fb, err := s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if fb == nil {
		t.Fatal("immediate mode should return feedback")
	}
	if !fb.Correct || fb.Explanation != "Because reasons." {
		t.Errorf("feedback = %+v", fb)
	}
}

func TestFeedbackSuppressedAtEnd(t *testing.T) {
	quiz, questions := testQuiz([]float64{1}, 0)
	store := newFakeStore(questions)

	s, err := NewSession(context.Background(), store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	fb, err := s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if fb != nil {
		t.Error("at_end mode should not return per-question feedback")
	}
}

func TestTimerExpiryFinalizesOnce(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1}, 0)
	quiz.DurationMinutes = 1
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})

	var completions int
	for i := 0; i < 65; i++ { // several ticks past zero
		done, err := s.Tick(ctx)
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if done {
			completions++
		}
	}
	if completions != 1 {
		t.Errorf("finalizations = %d, want exactly 1", completions)
	}
	if store.finalized == nil {
		t.Fatal("timeout did not finalize the attempt")
	}
	if store.finalized.TimeTakenSeconds != 60 {
		t.Errorf("time taken = %d, want 60", store.finalized.TimeTakenSeconds)
	}
}

// Timeout scores only explicit submissions: a selected-but-unsubmitted
// answer counts as unattempted and produces no response row.
func TestTimeoutIgnoresStagedAnswers(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1}, 0)
	quiz.DurationMinutes = 1
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	s.Advance()
	s.Select(SingleChoice{OptionID: correctOption(&questions[1])}) // never submitted

	for i := 0; i < 60; i++ {
		if _, err := s.Tick(ctx); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	if len(store.responses) != 1 {
		t.Fatalf("responses = %d, want 1 (staged answer must not count)", len(store.responses))
	}
	if store.finalized.CorrectAnswers != 1 || store.finalized.Unattempted != 1 {
		t.Errorf("counts = %d correct / %d unattempted, want 1/1",
			store.finalized.CorrectAnswers, store.finalized.Unattempted)
	}
}

func TestNavigationGating(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1, 1}, 0)
	quiz.AllowNavigation = false
	store := newFakeStore(questions)

	s, err := NewSession(context.Background(), store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.Advance()
	if err := s.Retreat(); !errors.Is(err, ErrNavigationLocked) {
		t.Errorf("Retreat err = %v, want ErrNavigationLocked", err)
	}
	if s.View().CurrentIndex != 1 {
		t.Errorf("cursor = %d, want 1 (retreat must be rejected)", s.View().CurrentIndex)
	}
	if err := s.JumpTo(2); !errors.Is(err, ErrNavigationLocked) {
		t.Errorf("JumpTo err = %v, want ErrNavigationLocked", err)
	}
	if s.View().CurrentIndex != 1 {
		t.Errorf("cursor = %d, want 1 (jump must be rejected)", s.View().CurrentIndex)
	}
}

func TestAbandonWritesNothing(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1}, 0)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})

	if err := s.Abandon(ctx); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if len(store.responses) != 0 {
		t.Errorf("abandoned attempt wrote %d responses, want 0", len(store.responses))
	}
	if store.finalized.Status != model.AttemptStatusAbandoned {
		t.Errorf("status = %s, want abandoned", store.finalized.Status)
	}
	if store.statsInc != 0 {
		t.Error("abandoned attempt must not bump profile counters")
	}
	// Terminal: further operations are rejected or ignored.
	if err := s.Finish(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Finish after abandon = %v, want ErrSessionClosed", err)
	}
	if done, _ := s.Tick(ctx); done {
		t.Error("tick after abandon must be a no-op")
	}
}

func TestFinishRetryAfterPersistenceError(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1, 1}, 0)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for i := range questions {
		s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[i])})
		s.Advance()
	}

	store.failInsertAfter = 1 // second insert fails
	err = s.Finish(ctx)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if perr.Op != "insert response" {
		t.Errorf("op = %q, want insert response", perr.Op)
	}
	if s.State() != StateFinalizing {
		t.Errorf("state = %s, want FINALIZING (retryable)", s.State())
	}

	// Retry succeeds and does not duplicate the already-written row.
	store.failInsertAfter = -1
	if err := s.Finish(ctx); err != nil {
		t.Fatalf("retry Finish: %v", err)
	}
	if len(store.responses) != 3 {
		t.Errorf("responses = %d, want 3", len(store.responses))
	}
	if store.statsInc != 1 {
		t.Errorf("stats increments = %d, want 1", store.statsInc)
	}
}

// The attempt aggregate update must come after every response insert, and
// profile counters last, so a reader never sees a completed attempt with
// missing responses.
func TestFinalizeSequencedAfterResponses(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1}, 0)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for i := range questions {
		s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[i])})
		s.Advance()
	}
	if err := s.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	want := []string{"create", "response", "response", "finalize", "stats"}
	if len(store.callLog) != len(want) {
		t.Fatalf("call log = %v, want %v", store.callLog, want)
	}
	for i := range want {
		if store.callLog[i] != want[i] {
			t.Fatalf("call log = %v, want %v", store.callLog, want)
		}
	}
}

// When shuffling is on, every question must be able to land in every
// position with roughly equal frequency. This guards against the classic
// biased sort-by-random-comparator shuffle.
func TestShuffleUniformity(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1, 1, 1}, 0)
	quiz.ShuffleQuestions = true
	ctx := context.Background()

	const trials = 20000
	n := len(questions)
	counts := make([][]int, n) // counts[question][position]
	for i := range counts {
		counts[i] = make([]int, n)
	}
	posByID := make(map[uuid.UUID]int, n)
	for i, q := range questions {
		posByID[q.ID] = i
	}

	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < trials; trial++ {
		store := newFakeStore(questions)
		s, err := NewSession(ctx, store, quiz, 1, rnd)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		for pos, id := range s.DisplayOrder() {
			counts[posByID[id]][pos]++
		}
	}

	expected := float64(trials) / float64(n)
	for qi := range counts {
		for pos, c := range counts[qi] {
			// 5% tolerance is far looser than the observed variance of a
			// uniform shuffle at 20k trials, but tight enough to reject
			// the biased comparator shuffle (which skews by >10%).
			if math.Abs(float64(c)-expected) > expected*0.05 {
				t.Errorf("question %d landed at position %d %d times, expected ~%.0f",
					qi, pos, c, expected)
			}
		}
	}
}

func TestShuffleDisabledPreservesOrder(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1, 1}, 0)
	store := newFakeStore(questions)

	s, err := NewSession(context.Background(), store, quiz, 1, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for i, id := range s.DisplayOrder() {
		if id != questions[i].ID {
			t.Fatalf("order changed at %d with shuffle disabled", i)
		}
	}
}

func TestViewStripsCorrectness(t *testing.T) {
	quiz, questions := testQuiz([]float64{1}, 0)
	store := newFakeStore(questions)

	s, err := NewSession(context.Background(), store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	v := s.View()
	if v.Question == nil {
		t.Fatal("view should expose the current question")
	}
	if len(v.Question.Options) != len(questions[0].Options) {
		t.Fatalf("options = %d, want %d", len(v.Question.Options), len(questions[0].Options))
	}
	if v.RemainingSeconds != quiz.DurationMinutes*60 {
		t.Errorf("remaining = %d, want %d", v.RemainingSeconds, quiz.DurationMinutes*60)
	}
}

func TestToggleFlagRecordedOnResponse(t *testing.T) {
	quiz, questions := testQuiz([]float64{1}, 0)
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.ToggleFlag()
	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	if err := s.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !store.responses[0].IsFlagged {
		t.Error("flag should be recorded on the response row")
	}

	// Toggling twice clears the flag.
	store2 := newFakeStore(questions)
	s2, _ := NewSession(ctx, store2, quiz, 1, nil)
	s2.ToggleFlag()
	s2.ToggleFlag()
	s2.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	if err := s2.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if store2.responses[0].IsFlagged {
		t.Error("double toggle should leave the question unflagged")
	}
}

// Each response row carries exactly one answer representation: choice
// answers fill selected_options and leave user_answer NULL, free-text
// answers the other way around. The store must accept both shapes.
func TestResponseRowsPerAnswerVariant(t *testing.T) {
	quiz, questions := testQuiz([]float64{1, 1}, 0)
	questions[1].QuestionType = model.QuestionTypeFillBlank
	questions[1].Options = []model.Option{
		{ID: uuid.New(), QuestionID: questions[1].ID, OptionText: "Mitochondria", IsCorrect: true},
	}
	store := newFakeStore(questions)
	ctx := context.Background()

	s, err := NewSession(ctx, store, quiz, 1, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.SubmitAnswer(SingleChoice{OptionID: correctOption(&questions[0])})
	s.Advance()
	s.SubmitAnswer(FreeText{Text: "mitochondria"})
	if err := s.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if len(store.responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(store.responses))
	}
	choice, text := store.responses[0], store.responses[1]
	if choice.UserAnswer != nil {
		t.Errorf("choice row user_answer = %q, want nil", *choice.UserAnswer)
	}
	if len(choice.SelectedOptions) != 1 {
		t.Errorf("choice row selected_options = %v, want one option", choice.SelectedOptions)
	}
	if text.SelectedOptions != nil {
		t.Errorf("text row selected_options = %v, want nil", text.SelectedOptions)
	}
	if text.UserAnswer == nil || *text.UserAnswer != "mitochondria" {
		t.Errorf("text row user_answer = %v, want verbatim student text", text.UserAnswer)
	}
	for i, r := range store.responses {
		if r.AnsweredAt.IsZero() {
			t.Errorf("response %d has zero answered_at", i)
		}
	}
}
