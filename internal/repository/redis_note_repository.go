package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/distructnote/api/internal/models"
)

const noteKeyPrefix = "note:"

// accessRetries bounds the optimistic-transaction retry loop under
// contention on the same note id.
const accessRetries = 16

// RedisNoteRepository stores notes as JSON values with a TTL matching
// the note's expiry, so Redis evicts expired notes natively and the
// sweep has nothing to do for this backend. AtomicAccess uses a
// WATCH-based optimistic transaction for per-id linearizability.
type RedisNoteRepository struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisNoteRepository creates a new instance of RedisNoteRepository.
func NewRedisNoteRepository(client *redis.Client, timeout time.Duration) *RedisNoteRepository {
	return &RedisNoteRepository{client: client, timeout: timeout}
}

func (r *RedisNoteRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func noteKey(id string) string {
	return noteKeyPrefix + id
}

// Insert persists a new note with a TTL until its expiry.
func (r *RedisNoteRepository) Insert(ctx context.Context, note *models.Note) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ttl := time.Until(note.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("insert note: already expired")
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode note: %w", err)
	}

	ok, err := r.client.SetNX(ctx, noteKey(note.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	if !ok {
		return ErrDuplicateID
	}
	return nil
}

// FetchActive returns the note only if it is still retrievable.
func (r *RedisNoteRepository) FetchActive(ctx context.Context, id string) (*models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	note, err := r.get(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	if !note.Retrievable(time.Now().UTC()) {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

// AtomicAccess consumes one view inside a WATCH transaction: if any
// concurrent writer touches the key between the read and the write,
// the transaction aborts and is retried, so the limit check and the
// increment stay one atomic unit per id.
func (r *RedisNoteRepository) AtomicAccess(ctx context.Context, id string) (*models.Note, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := noteKey(id)
	var result *models.Note

	txf := func(tx *redis.Tx) error {
		note, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if !note.Retrievable(time.Now().UTC()) || note.CurrentViews >= note.MaxViews {
			return ErrNoteNotFound
		}

		note.CurrentViews++
		if note.CurrentViews >= note.MaxViews {
			note.IsDestroyed = true
		}

		data, err := json.Marshal(note)
		if err != nil {
			return fmt.Errorf("encode note: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}

		result = note
		return nil
	}

	for i := 0; i < accessRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("access note: %w", err)
	}

	return nil, fmt.Errorf("access note: transaction retries exhausted")
}

// ExpireOlderThan is a structural no-op for this backend: keys carry
// a TTL equal to the note expiry, so Redis removes them natively.
func (r *RedisNoteRepository) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// ExistsActive reports whether a retrievable note with this id exists.
func (r *RedisNoteRepository) ExistsActive(ctx context.Context, id string) (bool, error) {
	_, err := r.FetchActive(ctx, id)
	if errors.Is(err, ErrNoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RequiresPassword reports whether the retrievable note is password
// protected. ErrNoteNotFound when there is no such note.
func (r *RedisNoteRepository) RequiresPassword(ctx context.Context, id string) (bool, error) {
	note, err := r.FetchActive(ctx, id)
	if err != nil {
		return false, err
	}
	return note.HasPassword(), nil
}

func (r *RedisNoteRepository) get(ctx context.Context, c redis.Cmdable, id string) (*models.Note, error) {
	data, err := c.Get(ctx, noteKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("fetch note: %w", err)
	}

	var note models.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("decode note: %w", err)
	}
	return &note, nil
}
