package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/distructnote/api/internal/models"
)

// Sentinel store errors. ErrNoteNotFound deliberately covers
// "never existed", "destroyed" and "expired" so callers cannot tell
// them apart. ErrDuplicateID signals an id collision on insert; the
// lifecycle engine retries id generation on it.
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrDuplicateID  = errors.New("note id already exists")
)

const pqUniqueViolation = "23505"

const noteColumns = `id, content, password_hash, max_views, current_views, is_destroyed, created_at, expires_at`

// NoteRepository provides PostgreSQL access for notes. All reads
// filter on the retrievability invariant (not destroyed, not expired)
// so destroyed and expired notes are indistinguishable from ones that
// never existed.
type NoteRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewNoteRepository creates a new instance of NoteRepository. A
// non-zero timeout bounds every store call.
func NewNoteRepository(db *sqlx.DB, timeout time.Duration) *NoteRepository {
	return &NoteRepository{db: db, timeout: timeout}
}

func (r *NoteRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Insert persists a new note. ErrDuplicateID signals an id collision.
func (r *NoteRepository) Insert(ctx context.Context, note *models.Note) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO notes (id, content, password_hash, max_views, current_views, is_destroyed, created_at, expires_at) VALUES (:id, :content, :password_hash, :max_views, :current_views, :is_destroyed, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// FetchActive returns the note only if it is still retrievable.
// Missing, destroyed and expired notes all surface as ErrNoteNotFound.
func (r *NoteRepository) FetchActive(ctx context.Context, id string) (*models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND is_destroyed = FALSE AND expires_at > $2 LIMIT 1`
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("fetch note: %w", err)
	}
	return &note, nil
}

// AtomicAccess consumes one view of the note in a single conditional
// statement: the increment, the limit check and the destroy flag all
// happen in one atomic unit, so concurrent callers racing for the
// last views serialize in the database. Zero rows means the note is
// absent, destroyed, expired, or already at its view limit.
func (r *NoteRepository) AtomicAccess(ctx context.Context, id string) (*models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `UPDATE notes SET current_views = current_views + 1, is_destroyed = (current_views + 1 >= max_views) WHERE id = $1 AND is_destroyed = FALSE AND expires_at > $2 AND current_views < max_views RETURNING ` + noteColumns
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("access note: %w", err)
	}
	return &note, nil
}

// ExpireOlderThan soft-destroys every non-destroyed note whose expiry
// passed before the given instant. Idempotent: already-destroyed
// notes are untouched.
func (r *NoteRepository) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `UPDATE notes SET is_destroyed = TRUE WHERE is_destroyed = FALSE AND expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire notes: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire notes rows affected: %w", err)
	}
	return count, nil
}

// ExistsActive reports whether a retrievable note with this id exists.
// Non-mutating; used by the presentation pre-flight.
func (r *NoteRepository) ExistsActive(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `SELECT EXISTS (SELECT 1 FROM notes WHERE id = $1 AND is_destroyed = FALSE AND expires_at > $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("check note exists: %w", err)
	}
	return exists, nil
}

// RequiresPassword reports whether the retrievable note with this id
// is password protected. ErrNoteNotFound when there is no such note.
func (r *NoteRepository) RequiresPassword(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `SELECT password_hash FROM notes WHERE id = $1 AND is_destroyed = FALSE AND expires_at > $2 LIMIT 1`
	var hash *string
	if err := r.db.GetContext(ctx, &hash, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNoteNotFound
		}
		return false, fmt.Errorf("check note password: %w", err)
	}
	return hash != nil && *hash != "", nil
}
