// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package locator derives object-store key prefixes for the date-partitioned
// recording layout: {opco}/{year}/{month}/{day}/[Metadata/][{filename}].
package locator

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MetadataSuffix marks metadata objects within a day partition.
	MetadataSuffix = ".xml"
	// AudioSuffix marks raw audio objects.
	AudioSuffix = ".wav"
	// MetadataSegment is the extra path segment some sources store metadata under.
	MetadataSegment = "Metadata"
)

// Options tunes prefix derivation.
type Options struct {
	MetadataSubpath bool
	Filename        string
}

// Prefix returns the listing prefix for opco on the calendar day of date.
// Month and day are not zero padded.
func Prefix(opco string, date time.Time, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d/%d/%d/", opco, date.Year(), int(date.Month()), date.Day())
	if opts.MetadataSubpath {
		b.WriteString(MetadataSegment)
		b.WriteByte('/')
	}
	b.WriteString(opts.Filename)
	return b.String()
}

// Days returns each calendar day from from to to inclusive, normalised to midnight
// in from's location. It returns nil when to precedes from's day.
func Days(from, to time.Time) []time.Time {
	start := truncateDay(from)
	end := truncateDay(to.In(from.Location()))
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsMetadata reports whether key names a metadata object.
func IsMetadata(key string) bool { return strings.HasSuffix(key, MetadataSuffix) }

// IsAudio reports whether key names a raw audio object.
func IsAudio(key string) bool { return strings.HasSuffix(key, AudioSuffix) }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
