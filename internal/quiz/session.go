package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNoActiveSession is returned by session operations while idle.
	ErrNoActiveSession = errors.New("quiz: no active session")
	// ErrEmptyQuestionSet is returned by Start with zero questions.
	ErrEmptyQuestionSet = errors.New("quiz: question set is empty")
	// ErrSessionComplete is returned by Answer once every question has
	// been answered.
	ErrSessionComplete = errors.New("quiz: all questions answered")
	// ErrSessionInProgress is returned by Finish before every question
	// has been answered.
	ErrSessionInProgress = errors.New("quiz: session still in progress")
)

// session is the in-memory quiz state. answers always has exactly
// currentIndex entries.
type session struct {
	questions []Question
	current   int
	answers   []int
	topic     string
	pending   *Attempt // computed but not yet persisted
}

// Controller owns at most one quiz session at a time and the cached attempt
// history. Safe for concurrent use, though the app drives it from a single
// screen.
type Controller struct {
	mu       sync.Mutex
	history  *HistoryStore
	attempts []Attempt
	session  *session
	now      func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller with an empty history cache. Call
// LoadHistory once at startup to populate it.
func NewController(history *HistoryStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		history:  history,
		attempts: []Attempt{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadHistory reads the persisted attempt list into the cache.
func (c *Controller) LoadHistory(ctx context.Context) error {
	attempts, err := c.history.Load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.attempts = attempts
	c.mu.Unlock()
	return nil
}

// Attempts returns the cached history, newest first.
func (c *Controller) Attempts() []Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Attempt{}, c.attempts...)
}

// Start begins a new session, unconditionally replacing any existing one.
// An abandoned session leaves no persisted trace.
func (c *Controller) Start(questions []Question, topic string) error {
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		slog.Info("discarding unfinished quiz session",
			"topic", c.session.topic,
			"answered", c.session.current,
			"total", len(c.session.questions),
		)
	}

	c.session = &session{
		questions: questions,
		current:   0,
		answers:   []int{},
		topic:     topic,
	}
	return nil
}

// Active reports whether a session exists.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Current returns the question awaiting an answer along with its zero-based
// position and the session length.
func (c *Controller) Current() (Question, int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Question{}, 0, 0, ErrNoActiveSession
	}
	s := c.session
	if s.current >= len(s.questions) {
		return Question{}, s.current, len(s.questions), ErrSessionComplete
	}
	return s.questions[s.current], s.current, len(s.questions), nil
}

// Answer records option for the current question and advances by exactly
// one. The index is recorded as given even when it is not a valid option for
// the question; an out-of-range answer simply never matches when scored.
func (c *Controller) Answer(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoActiveSession
	}
	s := c.session
	if s.current >= len(s.questions) {
		return ErrSessionComplete
	}

	s.answers = append(s.answers, option)
	s.current++
	return nil
}

// Complete reports whether every question has been answered.
func (c *Controller) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.current == len(c.session.questions)
}

// Finish scores the completed session, persists the attempt at the head of
// the history and clears the session. If the durable write fails the session
// is left intact with the computed attempt held, so a retry persists the
// same attempt instead of silently losing it.
func (c *Controller) Finish(ctx context.Context) (Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Attempt{}, ErrNoActiveSession
	}
	s := c.session
	if s.current < len(s.questions) {
		return Attempt{}, fmt.Errorf("%w: %d of %d answered", ErrSessionInProgress, s.current, len(s.questions))
	}

	attempt := s.pending
	if attempt == nil {
		a := c.score(s)
		attempt = &a
		s.pending = attempt
	}

	updated := append([]Attempt{*attempt}, c.attempts...)
	if err := c.history.Save(ctx, updated); err != nil {
		slog.Error("failed to persist quiz attempt, keeping session", "attempt_id", attempt.ID, "error", err)
		return Attempt{}, err
	}

	c.attempts = updated
	c.session = nil

	slog.Info("quiz finished",
		"attempt_id", attempt.ID,
		"topic", attempt.Topic,
		"score", attempt.Score,
		"total", attempt.TotalQuestions,
	)
	return *attempt, nil
}

func (c *Controller) score(s *session) Attempt {
	score := 0
	wrong := []WrongAnswer{}
	for i, q := range s.questions {
		if s.answers[i] == q.CorrectAnswer {
			score++
			continue
		}

		chosen := ""
		if s.answers[i] >= 0 && s.answers[i] < len(q.Options) {
			chosen = q.Options[s.answers[i]]
		}
		wrong = append(wrong, WrongAnswer{
			Question:      q.Text,
			UserAnswer:    chosen,
			CorrectAnswer: q.Options[q.CorrectAnswer],
			Explanation:   q.Explanation,
		})
	}

	now := c.now()
	return Attempt{
		ID:             fmt.Sprintf("quiz-%d", now.UnixMilli()),
		Date:           now.UTC().Format(time.RFC3339),
		Topic:          s.topic,
		Score:          score,
		TotalQuestions: len(s.questions),
		WrongAnswers:   wrong,
	}
}
