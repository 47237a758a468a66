// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldOriginID  = "origin_session_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Partition / object fields
	FieldOpco      = "opco"
	FieldPrefix    = "prefix"
	FieldObjectKey = "object_key"
	FieldFilename  = "filename"
	FieldFromDate  = "from_date"
	FieldToDate    = "to_date"

	// Result fields
	FieldRecords  = "records"
	FieldObjects  = "objects"
	FieldDuration = "duration"
	FieldBytes    = "bytes"
)
