// Package apperr defines the machine-readable error kinds surfaced to
// API callers. Domain rejections (no credits, no matching rule) are not
// errors; they travel as normal responses with a rejected status.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Unauthorized   Kind = "UNAUTHORIZED"
	Forbidden      Kind = "FORBIDDEN"
	InvalidPattern Kind = "INVALID_PATTERN"
	InvalidAmount  Kind = "INVALID_AMOUNT"
	NotFound       Kind = "NOT_FOUND"
	Conflict       Kind = "CONFLICT"
	Transient      Kind = "TRANSIENT_PERSISTENCE_FAILURE"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}
