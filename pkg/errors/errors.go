package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the note lifecycle.
//
// ErrNotFound deliberately covers "never existed", "destroyed" and
// "expired" so callers cannot probe which one happened.
var (
	ErrEmptyContent     = New("EMPTY_CONTENT", http.StatusBadRequest, "note content cannot be empty")
	ErrInvalidViews     = New("INVALID_VIEWS", http.StatusBadRequest, "invalid number of views")
	ErrNotFound         = New("NOT_FOUND", http.StatusNotFound, "note not found or has expired")
	ErrPasswordRequired = New("PASSWORD_REQUIRED", http.StatusUnauthorized, "password required")
	ErrInvalidPassword  = New("INVALID_PASSWORD", http.StatusForbidden, "invalid password")
	ErrConflict         = New("CONFLICT", http.StatusConflict, "note id already exists")
	ErrValidation       = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal         = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
