// Package notes persists free-form study notes tagged with a branch.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mindprep/mindprep/internal/kv"
)

// FilterAll matches every branch.
const FilterAll = "all"

var (
	// ErrEmptyText is returned when adding a blank note.
	ErrEmptyText = errors.New("notes: note text is empty")
	// ErrNotFound is returned when deleting a note that does not exist.
	ErrNotFound = errors.New("notes: note not found")
)

// Note is one saved note.
type Note struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Branch    string `json:"branch"`
	Timestamp string `json:"timestamp"`
}

// Book reads and writes the note list under the notes key.
type Book struct {
	store kv.Store
	mu    sync.Mutex
	now   func() time.Time
}

// Option configures a Book.
type Option func(*Book)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(b *Book) {
		b.now = now
	}
}

// NewBook creates a note book over the given store.
func NewBook(store kv.Store, opts ...Option) *Book {
	b := &Book{store: store, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// List returns notes for the given branch, oldest first. FilterAll (or "")
// returns everything.
func (b *Book) List(ctx context.Context, branch string) ([]Note, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	if branch == "" || branch == FilterAll {
		return all, nil
	}

	filtered := []Note{}
	for _, n := range all {
		if n.Branch == branch {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// Add appends a note and persists the list. Blank text is rejected.
func (b *Book) Add(ctx context.Context, text, branch string) (Note, error) {
	if strings.TrimSpace(text) == "" {
		return Note{}, ErrEmptyText
	}
	if branch == "" {
		branch = FilterAll
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load(ctx)
	if err != nil {
		return Note{}, err
	}

	now := b.now()
	note := Note{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Text:      text,
		Branch:    branch,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	if err := b.save(ctx, append(all, note)); err != nil {
		return Note{}, err
	}
	return note, nil
}

// Delete removes the note with the given ID.
func (b *Book) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load(ctx)
	if err != nil {
		return err
	}

	kept := all[:0]
	for _, n := range all {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(all) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b.save(ctx, kept)
}

func (b *Book) load(ctx context.Context) ([]Note, error) {
	raw, err := b.store.Get(ctx, kv.KeyNotes)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []Note{}, nil
		}
		return nil, fmt.Errorf("read notes: %w", err)
	}

	var all []Note
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		return nil, fmt.Errorf("parse notes: %w", err)
	}
	return all, nil
}

func (b *Book) save(ctx context.Context, all []Note) error {
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}
	if err := b.store.Set(ctx, kv.KeyNotes, string(data)); err != nil {
		return fmt.Errorf("write notes: %w", err)
	}
	return nil
}
