// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "errors"

var (
	// ErrSessionNotFound is returned when neither the session nor its origin is cached.
	ErrSessionNotFound = errors.New("original session not found")
	// ErrNoFilter is returned when refining a raw session without any terms.
	ErrNoFilter = errors.New("no filter applied")
	// ErrCapacityExceeded is returned when the record cap is already reached.
	ErrCapacityExceeded = errors.New("session record capacity exceeded")
	// ErrUnknownSource is returned for an opco without a registered extractor.
	ErrUnknownSource = errors.New("unknown metadata source")
)
