// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package archive bundles recordings from the object store into a zip stream.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/callvault/internal/locator"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/metrics"
	"github.com/ManuGH/callvault/internal/objectstore"
	"github.com/ManuGH/callvault/internal/telemetry"
)

// ErrInvalidItem is returned when an item is missing a field or names an
// unsafe filename.
var ErrInvalidItem = errors.New("invalid archive item")

// Item identifies one recording to include.
type Item struct {
	Opco     string
	Date     time.Time
	Filename string
}

// Resolved is an item with the object key of its audio.
type Resolved struct {
	Item
	Key string
}

// LocateAudio returns the first .wav key under the day prefix of opco that
// starts with filename.
func LocateAudio(ctx context.Context, store objectstore.Store, opco string, date time.Time, filename string) (string, error) {
	prefix := locator.Prefix(opco, date, locator.Options{Filename: filename})
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", prefix, err)
	}
	for _, key := range keys {
		if locator.IsAudio(key) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: no audio under %s", objectstore.ErrNotFound, prefix)
}

// Builder writes zip archives of recordings.
type Builder struct {
	store  objectstore.Store
	logger zerolog.Logger
}

// New returns a Builder reading from store.
func New(store objectstore.Store) *Builder {
	return &Builder{store: store, logger: log.WithComponent("archive")}
}

// Resolve validates every item and locates its audio. The first failure
// aborts the batch.
func (b *Builder) Resolve(ctx context.Context, items []Item) ([]Resolved, error) {
	out := make([]Resolved, 0, len(items))
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := validate(it); err != nil {
			metrics.IncArchiveItem("invalid")
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		key, err := LocateAudio(ctx, b.store, it.Opco, it.Date, it.Filename)
		if err != nil {
			metrics.IncArchiveItem("unresolved")
			return nil, fmt.Errorf("item %d (%s): %w", i, it.Filename, err)
		}
		out = append(out, Resolved{Item: it, Key: key})
	}
	return out, nil
}

func validate(it Item) error {
	switch {
	case strings.TrimSpace(it.Opco) == "":
		return fmt.Errorf("%w: opco is required", ErrInvalidItem)
	case strings.TrimSpace(it.Filename) == "":
		return fmt.Errorf("%w: filename is required", ErrInvalidItem)
	case it.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidItem)
	case strings.ContainsAny(it.Filename, `/\`) || it.Filename == "." || it.Filename == "..":
		return fmt.Errorf("%w: filename %q", ErrInvalidItem, it.Filename)
	}
	return nil
}

// Write streams each resolved item into w as one zip entry named after the
// requested filename. Audio is copied unmodified.
func (b *Builder) Write(ctx context.Context, w io.Writer, items []Resolved) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "archive", "archive.write",
		attribute.Int(telemetry.ArchiveItemsKey, len(items)))
	defer func() { telemetry.EndSpan(span, err) }()

	zw := zip.NewWriter(w)
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.writeEntry(ctx, zw, it); err != nil {
			metrics.IncArchiveItem("error")
			return err
		}
		metrics.IncArchiveItem("ok")
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	b.logger.Debug().Int("items", len(items)).Msg("archive written")
	return nil
}

func (b *Builder) writeEntry(ctx context.Context, zw *zip.Writer, it Resolved) error {
	rc, err := b.store.Open(ctx, it.Key)
	if err != nil {
		return fmt.Errorf("open %s: %w", it.Key, err)
	}
	defer rc.Close()

	hdr := &zip.FileHeader{
		Name:     path.Base(it.Filename),
		Method:   zip.Deflate,
		Modified: it.Date,
	}
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", hdr.Name, err)
	}
	n, err := io.Copy(dst, rc)
	if err != nil {
		return fmt.Errorf("copy %s: %w", it.Key, err)
	}
	b.logger.Debug().Str(log.FieldObjectKey, it.Key).Int64(log.FieldBytes, n).Msg("archive entry added")
	return nil
}

// Build resolves items and, when all resolve, writes the archive to w.
// Nothing is written to w if any item fails to resolve.
func (b *Builder) Build(ctx context.Context, w io.Writer, items []Item) error {
	resolved, err := b.Resolve(ctx, items)
	if err != nil {
		return err
	}
	return b.Write(ctx, w, resolved)
}
