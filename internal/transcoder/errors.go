// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transcoder

import "errors"

var (
	// ErrInvalidInput is returned for empty input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEncodeFailed wraps encoder process failures.
	ErrEncodeFailed = errors.New("encode failed")

	// ErrEmptyOutput is returned when the encoder exits cleanly without producing audio.
	ErrEmptyOutput = errors.New("encoder produced no output")
)
