// Package apperr carries the purchasing core's error taxonomy as a single
// tagged type, generalizing the flat sentinel-error style of a single-domain
// service into the four kinds the HTTP layer must distinguish.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the four error buckets the HTTP layer maps to status codes.
type Kind string

const (
	BadRequest   Kind = "BAD_REQUEST"
	NotFound     Kind = "NOT_FOUND"
	Conflict     Kind = "CONFLICT"
	Internal     Kind = "INTERNAL_ERROR"
)

// Error is the single tagged error type surfaced across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, &apperr.Error{Kind: apperr.NotFound}) style
// comparisons work by kind when compared against a bare *Error with only
// Kind set.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BadRequestf builds a BAD_REQUEST error.
func BadRequestf(format string, args ...any) *Error { return newf(BadRequest, format, args...) }

// NotFoundf builds a NOT_FOUND error.
func NotFoundf(format string, args ...any) *Error { return newf(NotFound, format, args...) }

// Conflictf builds a CONFLICT error.
func Conflictf(format string, args ...any) *Error { return newf(Conflict, format, args...) }

// Internalf builds an INTERNAL_ERROR error wrapping cause.
func Internalf(cause error, format string, args ...any) *Error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the Kind of err, defaulting to Internal for untagged
// errors so that an unexpected error never leaks as a 200 or silently
// becomes a 400.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsBadRequest, IsNotFound, and IsConflict let handlers branch on kind
// without repeating the KindOf(err) == X comparison at every call site.
func IsBadRequest(err error) bool { return KindOf(err) == BadRequest }
func IsNotFound(err error) bool   { return KindOf(err) == NotFound }
func IsConflict(err error) bool   { return KindOf(err) == Conflict }
