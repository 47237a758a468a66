// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recordings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/callvault/internal/archive"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/objectstore"
)

// Audio is a transcoded recording ready for download.
type Audio struct {
	Filename    string
	ContentType string
	Data        []byte
}

// mp3Name swaps the .wav extension of name for .mp3.
func mp3Name(name string) string {
	return strings.TrimSuffix(name, ".wav") + ".mp3"
}

// RecordingAudio fetches the WAV audio of one recording and returns it as MP3.
// Concurrent requests for the same object share one transcode.
func (s *Service) RecordingAudio(ctx context.Context, r Request) (Audio, error) {
	r, date, err := s.validateRequest(r)
	if err != nil {
		return Audio{}, err
	}

	key, err := archive.LocateAudio(ctx, s.store, r.Opco, date, r.Filename)
	if errors.Is(err, objectstore.ErrNotFound) {
		return Audio{}, notFound("Recording not found with OPCO=%s and filename=%s", r.Opco, r.Filename)
	}
	if err != nil {
		return Audio{}, storageError(err, "Failed to list blobs for %s", r.Filename)
	}

	logger := log.WithComponentFromContext(ctx, "recordings")
	v, err, shared := s.audio.Do(key, func() (any, error) {
		wav, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, storageError(err, "Failed to read %s", key)
		}
		mp3, err := s.transcoder.WAVToMP3(ctx, wav)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, wrap(ErrProcessing, err, "Error Converting wav to MP3")
		}
		return mp3, nil
	})
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldObjectKey, key).Msg("audio retrieval failed")
		return Audio{}, err
	}
	data := v.([]byte)
	logger.Info().
		Str(log.FieldObjectKey, key).
		Int(log.FieldBytes, len(data)).
		Bool("shared", shared).
		Msg("recording transcoded")
	return Audio{Filename: mp3Name(r.Filename), ContentType: "audio/mpeg", Data: data}, nil
}

// ArchivePlan is a fully resolved bulk download.
type ArchivePlan struct {
	items []archive.Resolved
}

// Len returns the number of entries the archive will hold.
func (p ArchivePlan) Len() int { return len(p.items) }

// PrepareArchive validates every request and locates its audio. Any invalid
// or missing recording fails the whole batch before output starts.
func (s *Service) PrepareArchive(ctx context.Context, reqs []Request) (ArchivePlan, error) {
	if len(reqs) == 0 {
		return ArchivePlan{}, invalid("At least one recording is required")
	}
	items := make([]archive.Item, 0, len(reqs))
	for _, r := range reqs {
		r, date, err := s.validateRequest(r)
		if err != nil {
			return ArchivePlan{}, err
		}
		items = append(items, archive.Item{Opco: r.Opco, Date: date, Filename: r.Filename})
	}
	resolved, err := s.archive.Resolve(ctx, items)
	if errors.Is(err, objectstore.ErrNotFound) {
		return ArchivePlan{}, &Error{Kind: ErrNotFound, Message: "No recordings found for the requested files", Cause: err}
	}
	if err != nil {
		return ArchivePlan{}, storageError(err, "Failed to resolve recordings")
	}
	return ArchivePlan{items: resolved}, nil
}

// WriteArchive streams the zip of plan to w.
func (s *Service) WriteArchive(ctx context.Context, plan ArchivePlan, w io.Writer) error {
	if err := s.archive.Write(ctx, w, plan.items); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return wrap(ErrProcessing, err, "Error processing ZIP file")
	}
	return nil
}

// DownloadArchive resolves reqs and writes their zip archive to w.
func (s *Service) DownloadArchive(ctx context.Context, reqs []Request, w io.Writer) error {
	plan, err := s.PrepareArchive(ctx, reqs)
	if err != nil {
		return err
	}
	if err := s.WriteArchive(ctx, plan, w); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}
