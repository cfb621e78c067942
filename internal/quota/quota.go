// Package quota enforces the rolling daily cap on generated questions.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mindprep/mindprep/internal/kv"
)

// DailyLimit is the number of questions a device may generate per calendar
// day.
const DailyLimit = 20

const dateLayout = "2006-01-02"

// Ledger tracks how many questions were generated today. The day boundary is
// the process-local calendar date; whenever the stored date differs from
// today the count resets to zero.
//
// The count is per question, not per batch request: Consume(n) after a
// successful generation adds n, so with the default batch of 5 a device gets
// four quizzes a day.
type Ledger struct {
	store kv.Store
	limit int
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLimit overrides the daily ceiling.
func WithLimit(n int) Option {
	return func(l *Ledger) {
		l.limit = n
	}
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates a ledger over the given store.
func NewLedger(store kv.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		limit: DailyLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the daily ceiling.
func (l *Ledger) Limit() int {
	return l.limit
}

// Count returns the number of questions generated today, resetting the
// stored state first if the day has rolled over.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	today := l.now().Format(dateLayout)

	date, err := l.store.Get(ctx, kv.KeyLastQuiz)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return 0, fmt.Errorf("read quota date: %w", err)
	}

	if date != today {
		if err := l.reset(ctx, today); err != nil {
			return 0, err
		}
		if date != "" {
			slog.Info("daily question count reset", "previous_date", date, "date", today)
		}
		return 0, nil
	}

	raw, err := l.store.Get(ctx, kv.KeyDailyCount)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read quota count: %w", err)
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		// A mangled counter is treated as zero rather than locking the
		// user out for the day.
		slog.Warn("stored question count is not a number", "value", raw)
		return 0, nil
	}
	return count, nil
}

// Remaining returns how many questions may still be generated today.
func (l *Ledger) Remaining(ctx context.Context) (int, error) {
	count, err := l.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count >= l.limit {
		return 0, nil
	}
	return l.limit - count, nil
}

// Allow reports whether generating n more questions stays within today's
// ceiling. It does not consume; call Consume after the batch succeeds.
func (l *Ledger) Allow(ctx context.Context, n int) (bool, error) {
	count, err := l.Count(ctx)
	if err != nil {
		return false, err
	}
	return count+n <= l.limit, nil
}

// Consume durably adds n generated questions to today's count.
func (l *Ledger) Consume(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("question count must be non-negative, got %d", n)
	}

	count, err := l.Count(ctx)
	if err != nil {
		return err
	}

	if err := l.store.Set(ctx, kv.KeyDailyCount, strconv.Itoa(count+n)); err != nil {
		return fmt.Errorf("write quota count: %w", err)
	}
	return nil
}

func (l *Ledger) reset(ctx context.Context, today string) error {
	if err := l.store.Set(ctx, kv.KeyLastQuiz, today); err != nil {
		return fmt.Errorf("write quota date: %w", err)
	}
	if err := l.store.Set(ctx, kv.KeyDailyCount, "0"); err != nil {
		return fmt.Errorf("write quota count: %w", err)
	}
	return nil
}
