// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metadata normalises recorder XML exports into uniform field maps.
package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/callvault/internal/log"
)

// StartTimeLayout is the timestamp layout recorders use for startTime/endTime.
const StartTimeLayout = "1/2/2006 3:04:05 PM"

// Logical field names shared by every dialect.
const (
	FieldStartTime    = "startTime"
	FieldEndTime      = "endTime"
	FieldExtensionNum = "extensionNum"
	FieldObjectID     = "objectID"
	FieldChannelNum   = "channelNum"
	FieldAniAliDigits = "aniAliDigits"
	FieldFullName     = "fullName"
	FieldName         = "name"
)

// Record is one metadata entry: field name to value. Values are strings for
// scalar fields and nested maps or lists for structured ones.
type Record map[string]any

// String returns the string form of field, or "" when absent.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// StartTime parses the startTime field in the recorder layout.
func (r Record) StartTime() (time.Time, bool) {
	raw := strings.TrimSpace(r.String(FieldStartTime))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(StartTimeLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Extractor turns one metadata object into records. Implementations never fail:
// unparsable input is logged and yields an empty result.
type Extractor interface {
	Extract(data []byte) []Record
}

// MediaCollection reads documents whose records live under Objects/Media.
// Each Media element becomes one record.
type MediaCollection struct{}

// Extract implements Extractor.
func (MediaCollection) Extract(data []byte) []Record {
	root, err := parseDocument(data)
	if err != nil {
		logParseError("media_collection", err)
		return []Record{}
	}

	objects := []*element{root}
	if root.name != "Objects" {
		objects = root.named("Objects")
	}
	var media []*element
	for _, o := range objects {
		media = append(media, o.named("Media")...)
	}

	out := make([]Record, 0, len(media))
	for _, m := range media {
		out = append(out, mediaRecord(m))
	}
	return out
}

func mediaRecord(m *element) Record {
	rec := make(Record, len(m.attrs)+len(m.children))
	for _, a := range m.attrs {
		rec[a.Name.Local] = a.Value
	}
	for _, c := range m.children {
		if c.isLeaf() {
			rec[c.name] = c.content()
		} else {
			rec[c.name] = c.stringForm()
		}
	}
	// Typed child nodes carry their descriptive fields as attributes.
	for _, c := range m.children {
		if _, typed := c.attr("Type"); !typed {
			continue
		}
		for _, a := range c.attrs {
			rec[a.Name.Local] = a.Value
		}
	}
	return rec
}

// Document maps a whole document into a single record made of the root
// element's attributes and children.
type Document struct{}

// Extract implements Extractor.
func (Document) Extract(data []byte) []Record {
	root, err := parseDocument(data)
	if err != nil {
		logParseError("document", err)
		return []Record{}
	}
	if root.isLeaf() {
		return []Record{{root.name: root.content()}}
	}
	return []Record{Record(root.fields())}
}

func logParseError(dialect string, err error) {
	l := log.WithComponent("metadata")
	l.Warn().Err(err).Str("dialect", dialect).Msg("skipping unparsable metadata object")
}
