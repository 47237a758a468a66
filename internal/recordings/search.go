// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recordings

import (
	"context"
	"strings"

	"github.com/ManuGH/callvault/internal/query"
	"github.com/ManuGH/callvault/internal/store"
)

// DefaultSearchPageSize applies when a search names no positive page size.
const DefaultSearchPageSize = 20

// SearchFilters are the optional term lists of a relational search. A record
// matches a list when any of its terms is a case-insensitive substring.
type SearchFilters struct {
	FileName     []string `json:"fileName"`
	ExtensionNum []string `json:"extensionNum"`
	ObjectID     []string `json:"objectID"`
	ChannelNum   []string `json:"channelNum"`
	AniAliDigits []string `json:"aniAliDigits"`
	Name         []string `json:"name"`
}

// Pagination selects a search page.
type Pagination struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// SearchRequest is a relational recordings search.
type SearchRequest struct {
	FromDate   string        `json:"from_date"`
	ToDate     string        `json:"to_date"`
	Opco       string        `json:"opco"`
	Filters    SearchFilters `json:"filters"`
	Pagination Pagination    `json:"pagination"`
}

// SearchResponse is one page of relational search results.
type SearchResponse struct {
	Data       []store.Recording `json:"data"`
	Message    string            `json:"message"`
	Status     string            `json:"status"`
	Pagination query.Page        `json:"pagination"`
}

// Predicate renders req as a WHERE clause. Dates must already be valid.
func (req SearchRequest) Predicate() query.Predicate {
	from, _ := parseDate(req.FromDate)
	to, _ := parseDate(req.ToDate)
	f := req.Filters
	return query.And(
		query.DateRange(query.ColDateAdded, &from, &to),
		query.ContainsAny(query.ColFileName, f.FileName),
		query.Contains(query.ColOpco, req.Opco),
		query.ContainsAny(query.ColExtensionNum, f.ExtensionNum),
		query.ContainsAny(query.ColObjectID, f.ObjectID),
		query.ContainsAny(query.ColChannelNum, f.ChannelNum),
		query.ContainsAny(query.ColAniAliDigits, f.AniAliDigits),
		query.ContainsAny(query.ColName, f.Name),
	)
}

// Search runs a filtered, paginated query over the relational store, newest
// recordings first.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	from, ok := parseDate(req.FromDate)
	if !ok {
		return SearchResponse{}, invalid("Invalid date format %s", req.FromDate)
	}
	to, ok := parseDate(req.ToDate)
	if !ok {
		return SearchResponse{}, invalid("Invalid date format %s", req.ToDate)
	}
	if to.Before(from) {
		return SearchResponse{}, invalid("Provide valid date range")
	}
	req.Opco = strings.TrimSpace(req.Opco)
	if req.Opco != "" && !s.registry.Known(req.Opco) {
		return SearchResponse{}, invalid("Invalid Opco")
	}

	number, size := req.Pagination.PageNumber, req.Pagination.PageSize
	if size <= 0 {
		size = DefaultSearchPageSize
	}
	if number <= 0 {
		number = 1
	}
	if err := validatePagination(number, size); err != nil {
		return SearchResponse{}, err
	}

	recs, page, err := s.repo.FindPage(ctx, req.Predicate(), number, size)
	if err != nil {
		return SearchResponse{}, wrap(ErrProcessing, err, "Failed to search recordings")
	}
	if recs == nil {
		recs = []store.Recording{}
	}
	return SearchResponse{Data: recs, Message: "Success", Status: "200", Pagination: page}, nil
}

// RecordingMetadata returns the stored metadata of one recording.
func (s *Service) RecordingMetadata(ctx context.Context, r Request) (store.Recording, error) {
	r, _, err := s.validateRequest(r)
	if err != nil {
		return store.Recording{}, err
	}
	recs, err := s.repo.FindByOpcoAndFileName(ctx, r.Opco, r.Filename)
	if err != nil {
		return store.Recording{}, wrap(ErrProcessing, err, "Failed to read recording metadata")
	}
	if len(recs) == 0 {
		return store.Recording{}, notFound("No Recordings found with OPCO=%s and fileName=%s", r.Opco, r.Filename)
	}
	return recs[0], nil
}
