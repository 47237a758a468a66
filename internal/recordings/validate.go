// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recordings

import (
	"math"
	"strings"
	"time"

	"github.com/ManuGH/callvault/internal/metadata"
)

// DateLayout is the date-time format of every request payload.
const DateLayout = "2006-01-02 15:04:05"

// MaxTagPageSize bounds a tag-search page.
const MaxTagPageSize = 100

func parseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	return t, err == nil
}

// parseRecordingDate also accepts the startTime layout found in metadata, so
// a client can pass a record's startTime back unchanged.
func parseRecordingDate(s string) (time.Time, bool) {
	if t, ok := parseDate(s); ok {
		return t, true
	}
	t, err := time.ParseInLocation(metadata.StartTimeLayout, strings.TrimSpace(s), time.UTC)
	return t, err == nil
}

func (s *Service) validateRange(fromStr, toStr, opco string) (time.Time, time.Time, error) {
	from, ok := parseDate(fromStr)
	if !ok {
		return time.Time{}, time.Time{}, invalid("Invalid date format")
	}
	to, ok := parseDate(toStr)
	if !ok {
		return time.Time{}, time.Time{}, invalid("Invalid date format")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid("`to_date` must be after `from_date`")
	}
	if !s.registry.Known(opco) {
		return time.Time{}, time.Time{}, invalid("Invalid `opco` value. Must be 'CMP', 'RGE', or 'NYSEG'")
	}
	return from, to, nil
}

func validatePagination(number, size int) error {
	if number < 1 {
		return invalid("Page number must be greater than 0")
	}
	if size < 1 {
		return invalid("Page size must be greater than 0")
	}
	if number > math.MaxInt/size {
		return invalid("Page number %d is out of range for page size %d", number, size)
	}
	return nil
}

// Request names one recording.
type Request struct {
	Opco     string `json:"opco"`
	Date     string `json:"date"`
	Filename string `json:"filename"`
}

// validateRequest checks r and returns it with surrounding blanks trimmed.
func (s *Service) validateRequest(r Request) (Request, time.Time, error) {
	if strings.TrimSpace(r.Filename) == "" {
		return r, time.Time{}, invalid("Filename is required")
	}
	if strings.TrimSpace(r.Opco) == "" {
		return r, time.Time{}, invalid("OPCO is required")
	}
	if strings.TrimSpace(r.Date) == "" {
		return r, time.Time{}, invalid("Date is required")
	}
	if !s.registry.Known(strings.TrimSpace(r.Opco)) {
		return r, time.Time{}, invalid("Invalid Opco")
	}
	if strings.ContainsAny(r.Filename, `/\`) {
		return r, time.Time{}, invalid("Invalid filename %s", r.Filename)
	}
	date, ok := parseRecordingDate(r.Date)
	if !ok {
		return r, time.Time{}, invalid("Invalid date format %s", r.Date)
	}
	r.Opco = strings.TrimSpace(r.Opco)
	r.Filename = strings.TrimSpace(r.Filename)
	return r, date, nil
}
