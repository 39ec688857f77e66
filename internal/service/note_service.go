package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/distructnote/api/internal/hasher"
	"github.com/distructnote/api/internal/models"
	"github.com/distructnote/api/internal/noteid"
	"github.com/distructnote/api/internal/repository"
	appErrors "github.com/distructnote/api/pkg/errors"
)

// idRetries bounds how many times note creation retries a fresh id
// after a store collision before giving up.
const idRetries = 3

type noteStore interface {
	Insert(ctx context.Context, note *models.Note) error
	FetchActive(ctx context.Context, id string) (*models.Note, error)
	AtomicAccess(ctx context.Context, id string) (*models.Note, error)
	ExpireOlderThan(ctx context.Context, now time.Time) (int64, error)
	ExistsActive(ctx context.Context, id string) (bool, error)
	RequiresPassword(ctx context.Context, id string) (bool, error)
}

// NoteConfig defines the lifecycle limits for notes.
type NoteConfig struct {
	DefaultMaxViews int
	MaxViewsLimit   int
	ExpiryWindow    time.Duration
	SiteURL         string
}

// NoteService orchestrates the note lifecycle: creation, gated
// retrieval with view counting, and expiry sweeping. The store is the
// sole arbiter of note state; no note is cached across calls.
type NoteService struct {
	store     noteStore
	ids       *noteid.Generator
	hasher    *hasher.Hasher
	tokens    *ViewTokenService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    NoteConfig
}

// NewNoteService constructs a NoteService instance.
func NewNoteService(store noteStore, ids *noteid.Generator, hash *hasher.Hasher, tokens *ViewTokenService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config NoteConfig) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.DefaultMaxViews < 1 {
		config.DefaultMaxViews = 1
	}
	if config.MaxViewsLimit < config.DefaultMaxViews {
		config.MaxViewsLimit = config.DefaultMaxViews
	}
	return &NoteService{
		store:     store,
		ids:       ids,
		hasher:    hash,
		tokens:    tokens,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// CreateNote validates the payload, hashes the optional password,
// generates an unguessable id (retrying on collision) and persists
// the note. A nil MaxViews selects the configured default.
func (s *NoteService) CreateNote(ctx context.Context, req models.CreateNoteRequest) (*models.NoteCreated, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, appErrors.Clone(appErrors.ErrEmptyContent, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}

	maxViews := s.config.DefaultMaxViews
	if req.MaxViews != nil {
		maxViews = *req.MaxViews
	}
	if maxViews < 1 || maxViews > s.config.MaxViewsLimit {
		return nil, appErrors.Clone(appErrors.ErrInvalidViews, "")
	}

	var passwordHash *string
	if req.Password != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		passwordHash = &hashed
	}

	now := time.Now().UTC()
	note := &models.Note{
		Content:      req.Content,
		PasswordHash: passwordHash,
		MaxViews:     maxViews,
		CurrentViews: 0,
		IsDestroyed:  false,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.config.ExpiryWindow),
	}

	for attempt := 0; attempt < idRetries; attempt++ {
		id, err := s.ids.NewID()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate note id")
		}
		note.ID = id

		err = s.store.Insert(ctx, note)
		if err == nil {
			s.metrics.RecordNoteCreated()
			s.logger.Info("note created",
				zap.String("note_id", note.ID),
				zap.Int("max_views", note.MaxViews),
				zap.Bool("protected", passwordHash != nil),
				zap.Time("expires_at", note.ExpiresAt),
			)
			return &models.NoteCreated{
				NoteID:    note.ID,
				URL:       s.config.SiteURL + "/view/" + note.ID,
				ExpiresAt: note.ExpiresAt,
			}, nil
		}
		if errors.Is(err, repository.ErrDuplicateID) {
			s.logger.Warn("note id collision, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist note")
	}

	return nil, appErrors.Clone(appErrors.ErrInternal, "failed to allocate a unique note id")
}

// AccessNote performs the fetch-gate-increment-destroy sequence. The
// authorization checks never mutate state; the single mutating step
// is the store's atomic access, so concurrent authorized callers
// cannot push the view count past the limit or each observe the
// final view.
func (s *NoteService) AccessNote(ctx context.Context, id, password string) (*models.NoteView, error) {
	note, err := s.store.FetchActive(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			s.metrics.RecordAccessDenied("not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch note")
	}

	if note.HasPassword() {
		if password == "" {
			s.metrics.RecordAccessDenied("password_required")
			return nil, appErrors.Clone(appErrors.ErrPasswordRequired, "")
		}
		if !s.hasher.Verify(password, *note.PasswordHash) {
			s.metrics.RecordAccessDenied("invalid_password")
			return nil, appErrors.Clone(appErrors.ErrInvalidPassword, "")
		}
	}

	// The gate above decided authorization only; the store re-checks
	// retrievability and the view budget inside its atomic unit.
	start := time.Now()
	post, err := s.store.AtomicAccess(ctx, id)
	s.metrics.ObserveDBQuery("note_atomic_access", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			s.metrics.RecordAccessDenied("not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to access note")
	}

	s.metrics.RecordNoteView()
	if post.IsDestroyed {
		s.metrics.RecordNoteDestroyed("views")
		s.logger.Info("note destroyed", zap.String("note_id", post.ID), zap.String("reason", "views"))
	}

	view := &models.NoteView{
		Content:      post.Content,
		CurrentViews: post.CurrentViews,
		MaxViews:     post.MaxViews,
		Destroyed:    post.IsDestroyed,
		CreatedAt:    post.CreatedAt,
		ExpiresAt:    post.ExpiresAt,
	}

	if s.tokens != nil {
		token, err := s.tokens.Issue(view)
		if err != nil {
			s.logger.Warn("failed to issue view token", zap.Error(err))
		} else {
			view.ViewToken = token
		}
	}

	return view, nil
}

// CheckExists reports whether a retrievable note with this id exists.
// Non-consuming; destroyed and expired notes read as absent.
func (s *NoteService) CheckExists(ctx context.Context, id string) (bool, error) {
	exists, err := s.store.ExistsActive(ctx, id)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check note")
	}
	return exists, nil
}

// RequiresPassword reports whether the note is password protected.
// Absent notes report false rather than an error so the probe leaks
// nothing beyond what CheckExists already does.
func (s *NoteService) RequiresPassword(ctx context.Context, id string) (bool, error) {
	required, err := s.store.RequiresPassword(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check note password")
	}
	return required, nil
}

// Meta combines the two pre-flight probes for the presentation layer.
func (s *NoteService) Meta(ctx context.Context, id string) (*models.NoteMeta, error) {
	exists, err := s.CheckExists(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := &models.NoteMeta{Exists: exists}
	if !exists {
		return meta, nil
	}
	required, err := s.RequiresPassword(ctx, id)
	if err != nil {
		return nil, err
	}
	meta.RequiresPassword = required
	return meta, nil
}

// RedeemViewToken returns the note view embedded in a previously
// issued token without touching the store, so a form re-submit does
// not consume a second view.
func (s *NoteService) RedeemViewToken(token string) (*models.NoteView, error) {
	if s.tokens == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}
	return s.tokens.Redeem(token)
}

// Sweep soft-destroys every note whose expiry passed before now and
// returns the number affected. Idempotent.
func (s *NoteService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	count, err := s.store.ExpireOlderThan(ctx, now)
	s.metrics.ObserveDBQuery("note_expire_sweep", time.Since(start))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep expired notes")
	}
	if count > 0 {
		s.metrics.RecordNotesExpired(count)
		s.logger.Info("expired notes destroyed", zap.Int64("count", count))
	}
	return count, nil
}
