// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transcoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/callvault/internal/procgroup"
)

// Profile describes the audio encoding target.
type Profile struct {
	Codec      string
	Bitrate    string
	SampleRate int
	Channels   int
	Format     string
}

// MP3Profile is the fixed target for recording playback.
var MP3Profile = Profile{
	Codec:      "libmp3lame",
	Bitrate:    "128k",
	SampleRate: 44100,
	Channels:   2,
	Format:     "mp3",
}

// Encoder converts the file at in into out.
type Encoder interface {
	Encode(ctx context.Context, in, out string, p Profile) error
}

// FFmpegEncoder shells out to ffmpeg.
type FFmpegEncoder struct {
	BinaryPath string
	// Grace is how long ffmpeg gets to exit after SIGTERM on cancellation.
	Grace  time.Duration
	Logger zerolog.Logger
}

func NewFFmpegEncoder(binaryPath string, logger zerolog.Logger) *FFmpegEncoder {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &FFmpegEncoder{BinaryPath: binaryPath, Grace: 2 * time.Second, Logger: logger}
}

func buildArgs(in, out string, p Profile) []string {
	return []string{
		"-y", "-nostdin", "-hide_banner",
		"-loglevel", "error",
		"-i", in,
		"-vn",
		"-acodec", p.Codec,
		"-b:a", p.Bitrate,
		"-ar", strconv.Itoa(p.SampleRate),
		"-ac", strconv.Itoa(p.Channels),
		"-f", p.Format,
		out,
	}
}

// Encode runs ffmpeg in its own process group. On cancellation the whole group
// is terminated. A non-zero exit carries the tail of stderr.
func (e *FFmpegEncoder) Encode(ctx context.Context, in, out string, p Profile) error {
	// #nosec G204 -- binary comes from config; paths are generated
	cmd := exec.Command(e.BinaryPath, buildArgs(in, out, p)...)
	procgroup.Set(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to pipe stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: exec start: %v", ErrEncodeFailed, err)
	}

	ring := NewRingBuffer(50)
	waitCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			ring.Add(scanner.Text())
		}
		_, _ = io.Copy(io.Discard, stderr)
		waitCh <- cmd.Wait()
	}()

	select {
	case err = <-waitCh:
	case <-ctx.Done():
		_ = procgroup.Terminate(cmd, waitCh, e.Grace)
		return ctx.Err()
	}

	if err != nil {
		diag := ring.Lines()
		e.Logger.Warn().
			Err(err).
			Str("binary", e.BinaryPath).
			Strs("stderr", diag).
			Msg("ffmpeg exited with error")
		return fmt.Errorf("%w: %v: %s", ErrEncodeFailed, err, strings.Join(diag, "; "))
	}
	return nil
}
