// SPDX-License-Identifier: MIT

package telemetry

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared across spans.
const (
	OpcoKey         = "callvault.opco"
	SessionIDKey    = "callvault.session_id"
	OriginIDKey     = "callvault.origin_session_id"
	FromDateKey     = "callvault.from_date"
	ToDateKey       = "callvault.to_date"
	RecordsKey      = "callvault.records"
	ObjectsKey      = "callvault.objects"
	TruncatedKey    = "callvault.truncated"
	TranscodeInKey  = "transcode.input_bytes"
	TranscodeOutKey = "transcode.output_bytes"
	ArchiveItemsKey = "archive.items"
)

// CrawlAttributes describes an object-store crawl.
func CrawlAttributes(opco string, from, to time.Time) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(OpcoKey, opco),
		attribute.String(FromDateKey, from.Format(time.DateTime)),
		attribute.String(ToDateKey, to.Format(time.DateTime)),
	}
}

// SessionAttributes describes the outcome of a session operation.
func SessionAttributes(id, origin string, records int, truncated bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SessionIDKey, id),
		attribute.Int(RecordsKey, records),
		attribute.Bool(TruncatedKey, truncated),
	}
	if origin != "" {
		attrs = append(attrs, attribute.String(OriginIDKey, origin))
	}
	return attrs
}
