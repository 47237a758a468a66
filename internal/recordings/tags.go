// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recordings

import (
	"context"

	"github.com/ManuGH/callvault/internal/objectstore"
)

// DefaultTagPageSize applies when a tag search names no page size.
const DefaultTagPageSize = 50

// TagRequest searches blob index tags.
type TagRequest struct {
	StartDate           string
	EndDate             string
	ContinuationToken   string
	PageSize            int
	InteractionID       string
	CustomerPhoneNumber string
	TalkdeskPhoneNumber string
	CallType            string
}

// TagSearch returns one page of objects whose index tags match req.
func (s *Service) TagSearch(ctx context.Context, req TagRequest) (objectstore.TagPage, error) {
	start, ok := parseDate(req.StartDate)
	if !ok {
		return objectstore.TagPage{}, invalid("Invalid date format for start_date: %s", req.StartDate)
	}
	end, ok := parseDate(req.EndDate)
	if !ok {
		return objectstore.TagPage{}, invalid("Invalid date format for end_date: %s", req.EndDate)
	}
	if end.Before(start) {
		return objectstore.TagPage{}, invalid("End date must be after start date")
	}
	size := req.PageSize
	switch {
	case size == 0:
		size = DefaultTagPageSize
	case size < 1:
		return objectstore.TagPage{}, invalid("Page size must be at least 1")
	case size > MaxTagPageSize:
		return objectstore.TagPage{}, invalid("Page size cannot exceed %d", MaxTagPageSize)
	}

	q := objectstore.TagQuery{
		StartTime:           start,
		EndTime:             end,
		InteractionID:       req.InteractionID,
		CustomerPhoneNumber: req.CustomerPhoneNumber,
		TalkdeskPhoneNumber: req.TalkdeskPhoneNumber,
		CallType:            req.CallType,
		ContinuationToken:   req.ContinuationToken,
		PageSize:            size,
	}
	if _, err := q.Expression(); err != nil {
		return objectstore.TagPage{}, invalid("%v", err)
	}

	page, err := objectstore.FindByTags(ctx, s.store, q)
	if err != nil {
		return objectstore.TagPage{}, storageError(err, "Failed to fetch Talkdesk metadata")
	}
	if page.Objects == nil {
		page.Objects = []objectstore.TaggedObject{}
	}
	page.TotalCount = len(page.Objects)
	s.logger.Info().Int("count", page.TotalCount).Bool("more", page.ContinuationToken != "").Msg("tag search served")
	return page, nil
}
