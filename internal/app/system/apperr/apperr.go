// Package apperr defines the error taxonomy shared by the engines and the
// HTTP layer.
//
// Stores return raw driver errors (or mongo.ErrNoDocuments). Engines and
// services translate those into one of the kinds below so callers can
// decide what to surface without knowing about MongoDB:
//
//   - Validation: caller-supplied identifiers or fields are missing/invalid.
//     Never retried.
//   - NotFound: a referenced notification, member or project does not exist.
//   - Store: the persistence collaborator failed. Not retried here.
//   - Conflict: a uniqueness rule rejected the write (duplicate email, name).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStore      Kind = "store"
	KindConflict   Kind = "conflict"
)

// Sentinels usable with errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStore      = &Error{Kind: KindStore}
	ErrConflict   = &Error{Kind: KindConflict}
)

// Error is a classified failure with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrStore) works
// for every store failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Validation builds a validation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error for the named entity.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// Store wraps a persistence failure with the operation that failed.
func Store(op string, err error) error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

// Conflict builds a conflict error.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsStore(err error) bool      { return errors.Is(err, ErrStore) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
