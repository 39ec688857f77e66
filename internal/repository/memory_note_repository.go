package repository

import (
	"context"
	"sync"
	"time"

	"github.com/distructnote/api/internal/models"
)

// MemoryNoteRepository is an in-process note store used for local
// development and tests. Semantics mirror the PostgreSQL store,
// including the soft-destroy flag and the uniform not-found behavior
// (ErrNoteNotFound) for missing, destroyed and expired notes.
type MemoryNoteRepository struct {
	mu    sync.Mutex
	notes map[string]*models.Note
}

// NewMemoryNoteRepository creates an empty in-memory store.
func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{notes: make(map[string]*models.Note)}
}

// Insert persists a new note. ErrDuplicateID on id collision.
func (r *MemoryNoteRepository) Insert(ctx context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[note.ID]; exists {
		return ErrDuplicateID
	}
	stored := *note
	r.notes[note.ID] = &stored
	return nil
}

// FetchActive returns a copy of the note if it is still retrievable.
func (r *MemoryNoteRepository) FetchActive(ctx context.Context, id string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	if !ok || !note.Retrievable(time.Now().UTC()) {
		return nil, ErrNoteNotFound
	}
	snapshot := *note
	return &snapshot, nil
}

// AtomicAccess consumes one view under the store mutex: the limit
// check, the increment and the destroy flag happen in one critical
// section, so racing callers serialize exactly like with the
// conditional UPDATE in the PostgreSQL store.
func (r *MemoryNoteRepository) AtomicAccess(ctx context.Context, id string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	if !ok || !note.Retrievable(time.Now().UTC()) || note.CurrentViews >= note.MaxViews {
		return nil, ErrNoteNotFound
	}

	note.CurrentViews++
	if note.CurrentViews >= note.MaxViews {
		note.IsDestroyed = true
	}

	snapshot := *note
	return &snapshot, nil
}

// ExpireOlderThan soft-destroys expired notes and reports how many
// were affected. Idempotent.
func (r *MemoryNoteRepository) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, note := range r.notes {
		if !note.IsDestroyed && note.ExpiresAt.Before(now) {
			note.IsDestroyed = true
			count++
		}
	}
	return count, nil
}

// ExistsActive reports whether a retrievable note with this id exists.
func (r *MemoryNoteRepository) ExistsActive(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	return ok && note.Retrievable(time.Now().UTC()), nil
}

// RequiresPassword reports whether the retrievable note is password
// protected. ErrNoteNotFound when there is no such note.
func (r *MemoryNoteRepository) RequiresPassword(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	if !ok || !note.Retrievable(time.Now().UTC()) {
		return false, ErrNoteNotFound
	}
	return note.HasPassword(), nil
}
