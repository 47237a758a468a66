// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package recordings implements the recording search and retrieval
// operations on top of the relational store, the session cache and the
// object store.
package recordings

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/callvault/internal/archive"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/metadata"
	"github.com/ManuGH/callvault/internal/objectstore"
	"github.com/ManuGH/callvault/internal/query"
	"github.com/ManuGH/callvault/internal/session"
	"github.com/ManuGH/callvault/internal/store"
)

// Repository is the relational read side.
type Repository interface {
	FindPage(ctx context.Context, where query.Predicate, number, size int) ([]store.Recording, query.Page, error)
	FindByOpcoAndFileName(ctx context.Context, opco, fileName string) ([]store.Recording, error)
}

// Transcoder converts WAV audio to MP3.
type Transcoder interface {
	WAVToMP3(ctx context.Context, wav []byte) ([]byte, error)
}

// Deps wires a Service.
type Deps struct {
	Store      objectstore.Store
	Repo       Repository
	Sessions   *session.Service
	Transcoder Transcoder
	Registry   *metadata.Registry
}

// Service implements the exposed recording operations.
type Service struct {
	store      objectstore.Store
	repo       Repository
	sessions   *session.Service
	transcoder Transcoder
	registry   *metadata.Registry
	archive    *archive.Builder

	audio  singleflight.Group
	logger zerolog.Logger
}

// New returns a Service. A nil registry selects metadata.DefaultRegistry.
func New(d Deps) *Service {
	reg := d.Registry
	if reg == nil {
		reg = metadata.DefaultRegistry()
	}
	return &Service{
		store:      d.Store,
		repo:       d.Repo,
		sessions:   d.Sessions,
		transcoder: d.Transcoder,
		registry:   reg,
		archive:    archive.New(d.Store),
		logger:     log.WithComponent("recordings"),
	}
}

// RangeQuery asks for a page of object-store metadata for one opco.
type RangeQuery struct {
	Opco       string
	From       string
	To         string
	PageNumber int
	PageSize   int
	SessionID  string
}

// SessionPage is a page of cached metadata records.
type SessionPage struct {
	Data         []metadata.Record `json:"data"`
	PageNumber   int               `json:"page_number"`
	PageSize     int               `json:"page_size"`
	TotalRecords int               `json:"total_records"`
	TotalPages   int               `json:"total_pages"`
	SessionID    string            `json:"session_id"`
	Stale        bool              `json:"stale,omitempty"`
	Truncated    bool              `json:"truncated,omitempty"`
}

func newSessionPage(p session.Page) SessionPage {
	data := p.Records
	if data == nil {
		data = []metadata.Record{}
	}
	return SessionPage{
		Data:         data,
		PageNumber:   p.PageNumber,
		PageSize:     p.PageSize,
		TotalRecords: p.TotalRecords,
		TotalPages:   p.TotalPages,
		SessionID:    p.SessionID,
		Stale:        p.Stale,
		Truncated:    p.Truncated,
	}
}

// MetadataRange returns a page of the crawl of q.Opco over [q.From, q.To],
// reusing the cached crawl named by q.SessionID when present.
func (s *Service) MetadataRange(ctx context.Context, q RangeQuery) (SessionPage, error) {
	from, to, err := s.validateRange(q.From, q.To, q.Opco)
	if err != nil {
		return SessionPage{}, err
	}
	if err := validatePagination(q.PageNumber, q.PageSize); err != nil {
		return SessionPage{}, err
	}

	page, err := s.sessions.Range(ctx, session.RangeRequest{
		Opco:       q.Opco,
		From:       from,
		To:         to,
		SessionID:  q.SessionID,
		PageNumber: q.PageNumber,
		PageSize:   q.PageSize,
	})
	if err != nil {
		return SessionPage{}, storageError(err, "Failed to read metadata for %s", q.Opco)
	}
	return newSessionPage(page), nil
}

// FilterQuery refines a cached session.
type FilterQuery struct {
	SessionID  string
	Filter     session.Filter
	PageNumber int
	PageSize   int
}

// FilterMetadata filters the records behind q.SessionID and returns a page of
// the result under a new session id.
func (s *Service) FilterMetadata(ctx context.Context, q FilterQuery) (SessionPage, error) {
	if err := validatePagination(q.PageNumber, q.PageSize); err != nil {
		return SessionPage{}, err
	}
	page, err := s.sessions.Refine(ctx, session.RefineRequest{
		SessionID:  q.SessionID,
		Filter:     q.Filter,
		PageNumber: q.PageNumber,
		PageSize:   q.PageSize,
	})
	if err != nil {
		return SessionPage{}, storageError(err, "Failed to filter session %s", q.SessionID)
	}
	return newSessionPage(page), nil
}

// CheckConnection reports whether the object store is reachable.
func (s *Service) CheckConnection(ctx context.Context) (bool, error) {
	start := time.Now()
	ok, err := s.store.Exists(ctx)
	if err != nil {
		return false, storageError(err, "Object store is not accessible")
	}
	s.logger.Debug().Bool("exists", ok).Dur(log.FieldDuration, time.Since(start)).Msg("object store checked")
	return ok, nil
}
