package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mindprep/mindprep/internal/kv"
)

// WrongAnswer records one missed question inside an attempt. Field names
// match the stored JSON produced by earlier versions of the app.
type WrongAnswer struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// Attempt is the immutable record of one finished quiz.
type Attempt struct {
	ID             string        `json:"id"`
	Date           string        `json:"date"`
	Topic          string        `json:"topic"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	WrongAnswers   []WrongAnswer `json:"wrongAnswers"`
}

// HistoryStore persists the attempt list, newest first, under the
// quiz-attempts key.
type HistoryStore struct {
	store kv.Store
}

// NewHistoryStore creates a history store over the given kv store.
func NewHistoryStore(store kv.Store) *HistoryStore {
	return &HistoryStore{store: store}
}

// Load returns all recorded attempts, newest first. An absent key means no
// history yet and yields an empty slice; a read or parse failure is returned
// so callers can tell "no history" from "storage is broken".
func (h *HistoryStore) Load(ctx context.Context) ([]Attempt, error) {
	raw, err := h.store.Get(ctx, kv.KeyAttempts)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []Attempt{}, nil
		}
		return nil, fmt.Errorf("read attempts: %w", err)
	}

	var attempts []Attempt
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		return nil, fmt.Errorf("parse attempts: %w", err)
	}
	return attempts, nil
}

// Save replaces the stored attempt list.
func (h *HistoryStore) Save(ctx context.Context, attempts []Attempt) error {
	data, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	if err := h.store.Set(ctx, kv.KeyAttempts, string(data)); err != nil {
		return fmt.Errorf("write attempts: %w", err)
	}
	return nil
}
