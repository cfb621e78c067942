// Package kv defines the string-keyed persistence boundary the core writes
// through, plus memory, file, Redis and Postgres implementations.
package kv

import (
	"context"
	"errors"
)

// Well-known keys. Values are UTF-8 JSON text except the two quota fields
// and the credential, which are plain strings.
const (
	KeyAttendance = "attendance"
	KeyNotes      = "notes"
	KeyAttempts   = "quiz-attempts"
	KeyLastQuiz   = "last-quiz-date"
	KeyDailyCount = "daily-question-count"
	KeyCredential = "GEMINI_API_KEY"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is a fallible string-keyed value store. Implementations must be safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
