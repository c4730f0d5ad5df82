package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind designates a category of failure that callers can branch on
type Kind uint8

// error kinds
const (
	KUnknown Kind = iota
	KNotFound
	KForbidden
	KValidation
	KInvalidTransition
	KConflict
	KInternal
)

func (k Kind) String() string {
	switch k {
	case KNotFound:
		return "not found"
	case KForbidden:
		return "forbidden"
	case KValidation:
		return "validation error"
	case KInvalidTransition:
		return "invalid transition"
	case KConflict:
		return "conflict"
	case KInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// Error is an error tagged with a kind, optionally wrapping a cause
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.msg
	}

	if e.msg == "" {
		return e.cause.Error()
	}

	return fmt.Sprintf("%s: %s", e.msg, e.cause)
}

// Kind returns the kind of this error
func (e *Error) Kind() Kind { return e.kind }

// NOTE: deliberately not a pkg/errors causer, errors.Cause() must
// stop at the tagged error so that sentinel comparison keeps working

// Unwrap satisfies the standard unwrapping contract
func (e *Error) Unwrap() error { return e.cause }

// New returns a new error of a given kind
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Newf same as New, but with formatting
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a kind
// NOTE: returns nil if err is nil
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}

	return &Error{kind: kind, msg: msg, cause: err}
}

// KindOf returns the kind of the outermost tagged error within
// the chain, or KUnknown if nothing in the chain is tagged
func KindOf(err error) Kind {
	if err == nil {
		return KUnknown
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}

	return KUnknown
}

// Is tells whether a given error is of a given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsNotFound is a shorthand for Is(err, KNotFound)
func IsNotFound(err error) bool { return Is(err, KNotFound) }

// IsConflict is a shorthand for Is(err, KConflict)
func IsConflict(err error) bool { return Is(err, KConflict) }
