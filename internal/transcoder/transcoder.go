// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package transcoder converts WAV recordings to MP3 through an external
// encoder, bounded in concurrency and wall time.
package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/metrics"
	"github.com/ManuGH/callvault/internal/telemetry"
)

const tempDirPattern = "audio_conversion_"

// Options configures a Transcoder.
type Options struct {
	MaxConcurrent int
	Timeout       time.Duration
	// TempDir is the parent for per-call scratch directories; empty uses os.TempDir.
	TempDir string
}

// Transcoder runs encodes in scratch directories that never outlive the call.
type Transcoder struct {
	enc     Encoder
	sem     *semaphore.Weighted
	timeout time.Duration
	tempDir string
	logger  zerolog.Logger
}

func New(enc Encoder, opts Options) *Transcoder {
	n := opts.MaxConcurrent
	if n <= 0 {
		n = 1
	}
	return &Transcoder{
		enc:     enc,
		sem:     semaphore.NewWeighted(int64(n)),
		timeout: opts.Timeout,
		tempDir: opts.TempDir,
		logger:  log.WithComponent("transcoder"),
	}
}

// WAVToMP3 converts wav to MP3 bytes. The scratch directory with its input and
// output files is removed on every return path.
func (t *Transcoder) WAVToMP3(ctx context.Context, wav []byte) (out []byte, err error) {
	if len(wav) == 0 {
		return nil, ErrInvalidInput
	}

	ctx, span := telemetry.StartSpan(ctx, "transcoder", "transcode.wav_to_mp3",
		attribute.Int(telemetry.TranscodeInKey, len(wav)))
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		case errors.Is(err, context.Canceled):
			outcome = "canceled"
		case err != nil:
			outcome = "error"
		}
		metrics.ObserveTranscode(outcome, time.Since(start), len(wav), len(out))
		span.SetAttributes(attribute.Int(telemetry.TranscodeOutKey, len(out)))
		telemetry.EndSpan(span, err)
	}()

	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.sem.Release(1)
	metrics.TranscodeInFlight.Inc()
	defer metrics.TranscodeInFlight.Dec()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(t.tempDir, tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			t.logger.Warn().Err(rmErr).Str("dir", dir).Msg("failed to remove scratch dir")
		}
	}()

	id := uuid.NewString()
	in := filepath.Join(dir, "input_"+id+".wav")
	outPath := filepath.Join(dir, "output_"+id+".mp3")

	if err := os.WriteFile(in, wav, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	if err := t.enc.Encode(ctx, in, outPath, MP3Profile); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, err
	}

	out, err = os.ReadFile(outPath) // #nosec G304 -- path generated above
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrEncodeFailed, err)
	}
	if len(out) == 0 {
		return nil, ErrEmptyOutput
	}
	t.logger.Debug().
		Int(log.FieldBytes, len(out)).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("transcode finished")
	return out, nil
}
