// Package apperr defines the error kinds raised by services and repositories.
// The HTTP layer maps each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind int

const (
	// KindUnknown marks errors that did not originate from domain rules.
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindDuplicateEmail
	KindCapacityExceeded
	KindValidation
	KindInactiveAccount
	KindUnauthenticated
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindNotFound:         "not_found",
	KindForbidden:        "forbidden",
	KindConflict:         "conflict",
	KindDuplicateEmail:   "duplicate_email",
	KindCapacityExceeded: "capacity_exceeded",
	KindValidation:       "validation",
	KindInactiveAccount:  "inactive_account",
	KindUnauthenticated:  "unauthenticated",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a domain error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so
// errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause that is kept out of the client message.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports a missing row.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Forbidden reports a caller without rights on the resource.
func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// Conflict reports a state clash such as an existing link.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// DuplicateEmail reports an email that is already registered.
func DuplicateEmail(email string) *Error {
	return New(KindDuplicateEmail, "Email %s is already registered.", email)
}

// CapacityExceeded reports a full collection.
func CapacityExceeded(format string, args ...any) *Error {
	return New(KindCapacityExceeded, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// InactiveAccount reports a disabled account.
func InactiveAccount(format string, args ...any) *Error {
	return New(KindInactiveAccount, format, args...)
}

// Unauthenticated reports missing, invalid or expired credentials.
func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message of err, or fallback when err is
// not a domain error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
