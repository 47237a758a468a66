// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transcoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	args := buildArgs("/tmp/in.wav", "/tmp/out.mp3", MP3Profile)
	assert.Equal(t, []string{
		"-y", "-nostdin", "-hide_banner",
		"-loglevel", "error",
		"-i", "/tmp/in.wav",
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", "128k",
		"-ar", "44100",
		"-ac", "2",
		"-f", "mp3",
		"/tmp/out.mp3",
	}, args)
}

func TestRingBuffer(t *testing.T) {
	r := NewRingBuffer(3)
	r.Add("a")
	r.Add("b")
	assert.Equal(t, []string{"a", "b"}, r.Lines())
	r.Add("c")
	r.Add("d")
	assert.Equal(t, []string{"b", "c", "d"}, r.Lines())
}

func TestFFmpegEncoder_MissingBinary(t *testing.T) {
	enc := NewFFmpegEncoder("/nonexistent/ffmpeg", zerolog.Nop())
	err := enc.Encode(context.Background(), "in.wav", "out.mp3", MP3Profile)
	assert.ErrorIs(t, err, ErrEncodeFailed)
}

// silentWAV returns a short 16-bit mono PCM file.
func silentWAV(samples int) []byte {
	const rate = 8000
	var buf bytes.Buffer
	dataLen := uint32(samples * 2)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

func TestFFmpegEncoder_RealBinary(t *testing.T) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	tr := New(NewFFmpegEncoder(bin, zerolog.Nop()), Options{MaxConcurrent: 1, Timeout: 30 * time.Second, TempDir: t.TempDir()})

	out, err := tr.WAVToMP3(context.Background(), silentWAV(8000))
	if err != nil && bytes.Contains([]byte(err.Error()), []byte("libmp3lame")) {
		t.Skipf("ffmpeg built without libmp3lame: %v", err)
	}
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFFmpegEncoder_GarbageInputFails(t *testing.T) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	tr := New(NewFFmpegEncoder(bin, zerolog.Nop()), Options{TempDir: t.TempDir()})
	_, err = tr.WAVToMP3(context.Background(), []byte("definitely not audio"))
	assert.ErrorIs(t, err, ErrEncodeFailed)
}
