package models

import "time"

// Note is the sole persisted entity. Content is immutable after
// creation; only current_views and is_destroyed ever change, and
// is_destroyed never reverts to false. Note is a storage record, it
// never crosses the API boundary; responses use NoteView and NoteMeta.
type Note struct {
	ID           string    `db:"id" json:"id"`
	Content      string    `db:"content" json:"content"`
	PasswordHash *string   `db:"password_hash" json:"password_hash,omitempty"`
	MaxViews     int       `db:"max_views" json:"max_views"`
	CurrentViews int       `db:"current_views" json:"current_views"`
	IsDestroyed  bool      `db:"is_destroyed" json:"is_destroyed"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
}

// Retrievable reports whether the note may still be served at the
// given instant. Every read path must apply this same filter.
func (n *Note) Retrievable(now time.Time) bool {
	return !n.IsDestroyed && n.ExpiresAt.After(now)
}

// HasPassword reports whether the note is password protected.
func (n *Note) HasPassword() bool {
	return n.PasswordHash != nil && *n.PasswordHash != ""
}

// CreateNoteRequest is the payload for creating a note. A nil
// MaxViews selects the configured default; an explicit zero is
// rejected as invalid.
type CreateNoteRequest struct {
	Content  string `json:"content" validate:"required"`
	Password string `json:"password,omitempty" validate:"omitempty,max=128"`
	MaxViews *int   `json:"max_views,omitempty"`
}

// NoteCreated is returned after a successful create.
type NoteCreated struct {
	NoteID    string    `json:"note_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NoteView is the result of consuming one view of a note.
type NoteView struct {
	Content      string    `json:"content"`
	CurrentViews int       `json:"current_views"`
	MaxViews     int       `json:"max_views"`
	Destroyed    bool      `json:"destroyed"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	ViewToken    string    `json:"view_token,omitempty"`
}

// NoteMeta is the non-consuming pre-flight probe result used by the
// presentation layer to decide whether to prompt for a password.
type NoteMeta struct {
	Exists           bool `json:"exists"`
	RequiresPassword bool `json:"requires_password"`
}
