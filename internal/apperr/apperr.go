// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP handlers. Stores return sentinel errors; services translate them
// into a Kind plus a human-readable reason so handlers can pick a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Standard reasons, mirrored in API error bodies.
const (
	ReasonNotFound     = "The required object was not found."
	ReasonConditions   = "For the requested operation the conditions are not met."
	ReasonBadRequest   = "Incorrectly made request."
	ReasonForbidden    = "Access to the requested object is forbidden."
	ReasonInternal     = "Internal Server Error"
	ReasonLimitReached = "Participant limit is reached."
	ReasonDuplicate    = "Duplicate request."
)

// Error is a classified service error.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Wrap attaches a cause. A nil err still yields an Error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Reason: defaultReason(kind), Message: message, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, ReasonNotFound, fmt.Sprintf(format, args...))
}

func Conflict(reason, format string, args ...any) *Error {
	return New(KindConflict, reason, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, ReasonForbidden, fmt.Sprintf(format, args...))
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, ReasonBadRequest, fmt.Sprintf(format, args...))
}

func Internal(err error, message string) *Error {
	return Wrap(err, KindInternal, message)
}

// KindOf reports the Kind of err; unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func defaultReason(kind Kind) string {
	switch kind {
	case KindNotFound:
		return ReasonNotFound
	case KindConflict:
		return ReasonConditions
	case KindForbidden:
		return ReasonForbidden
	case KindBadRequest:
		return ReasonBadRequest
	default:
		return ReasonInternal
	}
}
