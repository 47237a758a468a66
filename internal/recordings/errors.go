// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recordings

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/callvault/internal/archive"
	"github.com/ManuGH/callvault/internal/objectstore"
	"github.com/ManuGH/callvault/internal/resilience"
	"github.com/ManuGH/callvault/internal/session"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("recording not found")
	ErrStorageAccess  = errors.New("object store access failed")
	ErrProcessing     = errors.New("recording processing failed")
)

type ErrorClass string

const (
	ClassInvalidArgument ErrorClass = "invalid_argument"
	ClassNotFound        ErrorClass = "not_found"
	ClassUnsupported     ErrorClass = "unsupported"
	ClassUnavailable     ErrorClass = "unavailable"
	ClassUpstream        ErrorClass = "upstream"
	ClassCanceled        ErrorClass = "canceled"
	ClassInternal        ErrorClass = "internal"
)

// Error carries the message shown to API clients next to its kind sentinel.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind error, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// storageError classifies an object-store failure, keeping cancellation and
// the session sentinels intact.
func storageError(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrNoFilter),
		errors.Is(err, session.ErrCapacityExceeded), errors.Is(err, objectstore.ErrUnsupported):
		return err
	case errors.Is(err, objectstore.ErrNotFound):
		return wrap(ErrNotFound, err, format, args...)
	default:
		return wrap(ErrStorageAccess, err, format, args...)
	}
}

// Classify buckets err for transport mapping.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, archive.ErrInvalidItem),
		errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrNoFilter),
		errors.Is(err, session.ErrUnknownSource), errors.Is(err, objectstore.ErrInvalidKey):
		return ClassInvalidArgument
	case errors.Is(err, ErrNotFound), errors.Is(err, objectstore.ErrNotFound):
		return ClassNotFound
	case errors.Is(err, objectstore.ErrUnsupported):
		return ClassUnsupported
	case errors.Is(err, session.ErrCapacityExceeded), errors.Is(err, resilience.ErrCircuitOpen):
		return ClassUnavailable
	case errors.Is(err, ErrStorageAccess):
		return ClassUpstream
	default:
		return ClassInternal
	}
}

// Message returns the client-facing description of err.
func Message(err error) string {
	var e *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &e):
		return e.Message
	case errors.Is(err, session.ErrSessionNotFound):
		return "Original session not found"
	case errors.Is(err, session.ErrNoFilter):
		return "No Filter applied"
	case errors.Is(err, session.ErrCapacityExceeded):
		return "Too many cached records, retry later"
	case errors.Is(err, objectstore.ErrUnsupported):
		return "Operation not supported by the configured object store"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "Object store temporarily unavailable"
	case errors.Is(err, archive.ErrInvalidItem):
		return err.Error()
	default:
		return "Internal error"
	}
}
