package quiz_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mindprep/mindprep/internal/kv"
	"github.com/mindprep/mindprep/internal/quiz"
)

func questionSet(topic string, correct ...int) []quiz.Question {
	qs := make([]quiz.Question, len(correct))
	for i, c := range correct {
		qs[i] = quiz.Question{
			ID:            fmt.Sprintf("%s-%d", topic, i),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: c,
			Explanation:   fmt.Sprintf("Because %d", i+1),
			Topic:         topic,
		}
	}
	return qs
}

func newController(store kv.Store) *quiz.Controller {
	return quiz.NewController(quiz.NewHistoryStore(store))
}

func TestController_StartEmpty(t *testing.T) {
	c := newController(kv.NewMemoryStore())

	err := c.Start(nil, "Probability")
	if !errors.Is(err, quiz.ErrEmptyQuestionSet) {
		t.Errorf("Start() error = %v, want ErrEmptyQuestionSet", err)
	}
}

func TestController_IdleOperations(t *testing.T) {
	c := newController(kv.NewMemoryStore())

	if err := c.Answer(0); !errors.Is(err, quiz.ErrNoActiveSession) {
		t.Errorf("Answer() error = %v, want ErrNoActiveSession", err)
	}
	if _, err := c.Finish(context.Background()); !errors.Is(err, quiz.ErrNoActiveSession) {
		t.Errorf("Finish() error = %v, want ErrNoActiveSession", err)
	}
	if _, _, _, err := c.Current(); !errors.Is(err, quiz.ErrNoActiveSession) {
		t.Errorf("Current() error = %v, want ErrNoActiveSession", err)
	}
	if c.Complete() {
		t.Error("Complete() = true while idle, want false")
	}
}

func TestController_AnswerAdvancesOneAtATime(t *testing.T) {
	c := newController(kv.NewMemoryStore())
	if err := c.Start(questionSet("Probability", 0, 1, 2), "Probability"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		_, pos, total, err := c.Current()
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if pos != i || total != 3 {
			t.Errorf("Current() position = %d/%d, want %d/3", pos, total, i)
		}
		if c.Complete() {
			t.Errorf("Complete() = true at position %d, want false", i)
		}
		if err := c.Answer(99); err != nil {
			t.Fatalf("Answer() error = %v", err)
		}
	}

	if !c.Complete() {
		t.Error("Complete() = false after answering every question, want true")
	}
	if err := c.Answer(0); !errors.Is(err, quiz.ErrSessionComplete) {
		t.Errorf("Answer() past the end error = %v, want ErrSessionComplete", err)
	}
}

func TestController_FinishScoring(t *testing.T) {
	c := newController(kv.NewMemoryStore())
	if err := c.Start(questionSet("Probability", 0, 1, 1, 0, 3), "Probability"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, answer := range []int{0, 1, 2, 0, 3} {
		if err := c.Answer(answer); err != nil {
			t.Fatalf("Answer(%d) error = %v", answer, err)
		}
	}

	attempt, err := c.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if attempt.Score != 4 {
		t.Errorf("Score = %d, want 4", attempt.Score)
	}
	if attempt.TotalQuestions != 5 {
		t.Errorf("TotalQuestions = %d, want 5", attempt.TotalQuestions)
	}
	if len(attempt.WrongAnswers) != attempt.TotalQuestions-attempt.Score {
		t.Errorf("len(WrongAnswers) = %d, want %d", len(attempt.WrongAnswers), attempt.TotalQuestions-attempt.Score)
	}

	wa := attempt.WrongAnswers[0]
	if wa.Question != "Question 3" {
		t.Errorf("WrongAnswers[0].Question = %q, want %q", wa.Question, "Question 3")
	}
	if wa.UserAnswer != "C" {
		t.Errorf("WrongAnswers[0].UserAnswer = %q, want %q", wa.UserAnswer, "C")
	}
	if wa.CorrectAnswer != "B" {
		t.Errorf("WrongAnswers[0].CorrectAnswer = %q, want %q", wa.CorrectAnswer, "B")
	}
	if wa.Explanation != "Because 3" {
		t.Errorf("WrongAnswers[0].Explanation = %q, want %q", wa.Explanation, "Because 3")
	}

	if c.Active() {
		t.Error("Active() = true after Finish(), want false")
	}
	if _, err := c.Finish(context.Background()); !errors.Is(err, quiz.ErrNoActiveSession) {
		t.Errorf("second Finish() error = %v, want ErrNoActiveSession", err)
	}
}

func TestController_OutOfRangeAnswerNeverScores(t *testing.T) {
	c := newController(kv.NewMemoryStore())
	if err := c.Start(questionSet("Probability", 0, 1), "Probability"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c.Answer(7)
	c.Answer(-1)

	attempt, err := c.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if attempt.Score != 0 {
		t.Errorf("Score = %d, want 0", attempt.Score)
	}
	for i, wa := range attempt.WrongAnswers {
		if wa.UserAnswer != "" {
			t.Errorf("WrongAnswers[%d].UserAnswer = %q for out-of-range answer, want empty", i, wa.UserAnswer)
		}
	}
}

func TestController_FinishBeforeComplete(t *testing.T) {
	c := newController(kv.NewMemoryStore())
	if err := c.Start(questionSet("Probability", 0, 1), "Probability"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Answer(0)

	if _, err := c.Finish(context.Background()); !errors.Is(err, quiz.ErrSessionInProgress) {
		t.Errorf("Finish() error = %v, want ErrSessionInProgress", err)
	}
}

func TestController_StartDiscardsUnfinishedSession(t *testing.T) {
	store := kv.NewMemoryStore()
	c := newController(store)

	if err := c.Start(questionSet("Probability", 0, 1, 2), "Probability"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Answer(0)

	if err := c.Start(questionSet("Inferential Statistics", 1), "Inferential Statistics"); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	q, pos, total, err := c.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if pos != 0 || total != 1 || q.Topic != "Inferential Statistics" {
		t.Errorf("Current() = %q %d/%d, want fresh session", q.Topic, pos, total)
	}

	// The abandoned session must leave no persisted trace.
	if _, err := store.Get(context.Background(), kv.KeyAttempts); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("quiz-attempts written for abandoned session: %v", err)
	}
}

func TestController_HistoryNewestFirst(t *testing.T) {
	store := kv.NewMemoryStore()
	times := []time.Time{
		time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
	i := 0
	c := quiz.NewController(quiz.NewHistoryStore(store), quiz.WithClock(func() time.Time {
		t := times[i]
		i++
		return t
	}))

	for _, topic := range []string{"Probability", "Evaluation"} {
		if err := c.Start(questionSet(topic, 0), topic); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		c.Answer(0)
		if _, err := c.Finish(context.Background()); err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
	}

	attempts := c.Attempts()
	if len(attempts) != 2 {
		t.Fatalf("len(Attempts()) = %d, want 2", len(attempts))
	}
	if attempts[0].Topic != "Evaluation" || attempts[1].Topic != "Probability" {
		t.Errorf("history order = [%s, %s], want newest first", attempts[0].Topic, attempts[1].Topic)
	}

	// A fresh controller reads the same list back from storage.
	fresh := newController(store)
	if err := fresh.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if got := fresh.Attempts(); len(got) != 2 || got[0].Topic != "Evaluation" {
		t.Errorf("reloaded history = %+v, want same newest-first list", got)
	}
}

// failingStore errors on Set until healed, simulating broken device storage.
type failingStore struct {
	*kv.MemoryStore
	healed bool
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if !s.healed {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func TestController_FinishPersistFailureKeepsSession(t *testing.T) {
	store := &failingStore{MemoryStore: kv.NewMemoryStore()}
	c := newController(store)

	if err := c.Start(questionSet("Probability", 0), "Probability"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Answer(0)

	if _, err := c.Finish(context.Background()); err == nil {
		t.Fatal("Finish() should surface the persistence failure")
	}

	// Session survives the failure; history stays untouched.
	if !c.Active() {
		t.Error("Active() = false after failed Finish(), want true")
	}
	if got := c.Attempts(); len(got) != 0 {
		t.Errorf("Attempts() = %d entries after failed persist, want 0", len(got))
	}

	// Retry succeeds once storage recovers and persists the same attempt.
	store.healed = true
	attempt, err := c.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish() retry error = %v", err)
	}
	if attempt.Score != 1 {
		t.Errorf("Score = %d, want 1", attempt.Score)
	}
	if got := c.Attempts(); len(got) != 1 || got[0].ID != attempt.ID {
		t.Errorf("Attempts() = %+v, want the retried attempt", got)
	}
}

func TestHistoryStore_LoadErrors(t *testing.T) {
	store := kv.NewMemoryStore()
	h := quiz.NewHistoryStore(store)
	ctx := context.Background()

	// Absent key: no history yet, not an error.
	attempts, err := h.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("Load() = %d attempts, want 0", len(attempts))
	}

	// Corrupt payload: surfaced, not swallowed.
	store.Set(ctx, kv.KeyAttempts, "{broken")
	if _, err := h.Load(ctx); err == nil {
		t.Error("Load() should error on a corrupt attempts payload")
	}
}
