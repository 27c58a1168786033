// Package apperrors defines the per-request failure taxonomy shared by the
// policy, validation, storage and HTTP layers.
package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind string

const (
	KindDenied            Kind = "denied"
	KindUnauthenticated   Kind = "unauthenticated"
	KindNotFound          Kind = "not-found"
	KindReferenceNotFound Kind = "reference-not-found"
	KindReferenceInUse    Kind = "reference-in-use"
	KindDuplicate         Kind = "duplicate"
	KindInvalidTransition Kind = "invalid-transition"
	KindInvalidValue      Kind = "invalid-value"
	KindConflict          Kind = "conflict"
)

// Error is a classified failure. Reason is only set for denials.
type Error struct {
	Kind    Kind   `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// Sentinels for errors.Is checks.
var (
	ErrDenied            = &Error{Kind: KindDenied}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrReferenceNotFound = &Error{Kind: KindReferenceNotFound}
	ErrReferenceInUse    = &Error{Kind: KindReferenceInUse}
	ErrDuplicate         = &Error{Kind: KindDuplicate}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrInvalidValue      = &Error{Kind: KindInvalidValue}
	ErrConflict          = &Error{Kind: KindConflict}
)

func newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Denied reports an authorization failure with its reason code.
func Denied(reason, format string, args ...interface{}) error {
	return &Error{Kind: KindDenied, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...interface{}) error {
	return newf(KindUnauthenticated, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newf(KindNotFound, format, args...)
}

func ReferenceNotFound(format string, args ...interface{}) error {
	return newf(KindReferenceNotFound, format, args...)
}

func ReferenceInUse(format string, args ...interface{}) error {
	return newf(KindReferenceInUse, format, args...)
}

func Duplicate(format string, args ...interface{}) error {
	return newf(KindDuplicate, format, args...)
}

func InvalidTransition(format string, args ...interface{}) error {
	return newf(KindInvalidTransition, format, args...)
}

func InvalidValue(format string, args ...interface{}) error {
	return newf(KindInvalidValue, format, args...)
}

// Conflict reports a failed compare-and-swap precondition. Callers re-read
// the record before retrying.
func Conflict(format string, args ...interface{}) error {
	return newf(KindConflict, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
