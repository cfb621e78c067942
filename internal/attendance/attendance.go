// Package attendance keeps the study-day calendar: a set of marked dates.
package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mindprep/mindprep/internal/kv"
)

const dateLayout = "2006-01-02"

// Calendar reads and writes the attendance map under the attendance key.
type Calendar struct {
	store kv.Store
	mu    sync.Mutex
}

// NewCalendar creates a calendar over the given store.
func NewCalendar(store kv.Store) *Calendar {
	return &Calendar{store: store}
}

// Toggle flips the mark for an ISO date (2006-01-02) and returns the new
// state.
func (c *Calendar) Toggle(ctx context.Context, date string) (bool, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return false, fmt.Errorf("attendance: invalid date %q: %w", date, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	marks, err := c.load(ctx)
	if err != nil {
		return false, err
	}

	marks[date] = !marks[date]
	present := marks[date]
	if !present {
		delete(marks, date) // keep the stored map sparse
	}

	if err := c.save(ctx, marks); err != nil {
		return false, err
	}
	return present, nil
}

// Present reports whether a date is marked.
func (c *Calendar) Present(ctx context.Context, date string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	marks, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	return marks[date], nil
}

// Month returns the marked dates of a month, sorted ascending.
func (c *Calendar) Month(ctx context.Context, year int, month time.Month) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	marks, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	var days []string
	for date, present := range marks {
		if present && len(date) >= len(prefix) && date[:len(prefix)] == prefix {
			days = append(days, date)
		}
	}
	sort.Strings(days)
	return days, nil
}

func (c *Calendar) load(ctx context.Context) (map[string]bool, error) {
	raw, err := c.store.Get(ctx, kv.KeyAttendance)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("read attendance: %w", err)
	}

	marks := map[string]bool{}
	if err := json.Unmarshal([]byte(raw), &marks); err != nil {
		return nil, fmt.Errorf("parse attendance: %w", err)
	}
	return marks, nil
}

func (c *Calendar) save(ctx context.Context, marks map[string]bool) error {
	data, err := json.Marshal(marks)
	if err != nil {
		return fmt.Errorf("marshal attendance: %w", err)
	}
	if err := c.store.Set(ctx, kv.KeyAttendance, string(data)); err != nil {
		return fmt.Errorf("write attendance: %w", err)
	}
	return nil
}
