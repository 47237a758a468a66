// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session crawls date ranges of recording metadata and keeps the
// results, and refinements of them, in a two-tier session cache.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/callvault/internal/cache"
	"github.com/ManuGH/callvault/internal/locator"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/metadata"
	"github.com/ManuGH/callvault/internal/metrics"
	"github.com/ManuGH/callvault/internal/objectstore"
	"github.com/ManuGH/callvault/internal/query"
	"github.com/ManuGH/callvault/internal/telemetry"
)

// Tier names used in metrics and cache namespaces.
const (
	TierRaw      = "raw"
	TierFiltered = "filtered"
)

// Entry is a tier-1 session: the records of one crawl.
type Entry struct {
	ID        string            `json:"id"`
	Opco      string            `json:"opco"`
	From      time.Time         `json:"from"`
	To        time.Time         `json:"to"`
	Records   []metadata.Record `json:"records"`
	Truncated bool              `json:"truncated,omitempty"`
}

// FilteredEntry is a tier-2 session: a refinement of a crawl.
type FilteredEntry struct {
	ID        string            `json:"id"`
	OriginID  string            `json:"originId"`
	Signature Signature         `json:"signature"`
	Records   []metadata.Record `json:"records"`
	Stale     bool              `json:"stale,omitempty"`
}

// Page is one window over a session's records.
type Page struct {
	query.Page
	Records   []metadata.Record
	SessionID string
	// Stale is set when records came from the union of all cached crawls.
	Stale     bool
	Truncated bool
}

// Options tunes the service.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	// MaxRecords caps raw records held across all tier-1 sessions.
	MaxRecords int
	// AllowGlobalFallback lets refinements of expired sessions run over every
	// cached crawl instead of failing.
	AllowGlobalFallback bool
}

// Service owns both cache tiers and the held-record counter.
type Service struct {
	store    objectstore.Store
	registry *metadata.Registry
	raw      cache.Cache[Entry]
	filtered cache.Cache[FilteredEntry]

	// ledger is the authority for which crawls are held: it bounds them by
	// TTL and MaxEntries, and every entry leaving it is deleted from the raw
	// tier and released from held.
	ledger      *cache.Memory[int]
	held        atomic.Int64
	maxRecords  int64
	allowGlobal atomic.Bool

	newID  func() string
	logger zerolog.Logger
}

// New wires a service over the given tiers. The raw tier should not bound
// itself; the service evicts from it.
func New(store objectstore.Store, registry *metadata.Registry, raw cache.Cache[Entry], filtered cache.Cache[FilteredEntry], opts Options) *Service {
	s := &Service{
		store:      store,
		registry:   registry,
		raw:        raw,
		filtered:   filtered,
		maxRecords: int64(opts.MaxRecords),
		newID:      uuid.NewString,
		logger:     log.WithComponent("session"),
	}
	if s.maxRecords <= 0 {
		s.maxRecords = 10000
	}
	s.allowGlobal.Store(opts.AllowGlobalFallback)
	s.ledger = cache.NewMemory(cache.Options[int]{
		TTL:             opts.TTL,
		MaxEntries:      opts.MaxEntries,
		CleanupInterval: janitorInterval(opts.TTL),
		OnEvict:         s.evicted,
	})
	return s
}

func (s *Service) evicted(id string, n int, reason cache.EvictionReason) {
	s.release(int64(n))
	if reason == cache.EvictReplaced {
		return
	}
	if reason == cache.EvictExpired || reason == cache.EvictCapacity {
		metrics.IncCacheEviction(TierRaw, string(reason))
	}
	s.raw.Delete(context.Background(), id)
}

func janitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl/2 < time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// Close stops background sweeping.
func (s *Service) Close() { s.ledger.Stop() }

// SetAllowGlobalFallback toggles refinement of expired sessions over every cached crawl.
func (s *Service) SetAllowGlobalFallback(v bool) { s.allowGlobal.Store(v) }

// Held returns the number of raw records currently cached or reserved by
// running crawls.
func (s *Service) Held() int64 { return s.held.Load() }

// reserve claims up to want records of the cap and returns how many were
// granted.
func (s *Service) reserve(want int64) int64 {
	if want <= 0 {
		return 0
	}
	for {
		cur := s.held.Load()
		free := s.maxRecords - cur
		if free <= 0 {
			return 0
		}
		n := min(want, free)
		if s.held.CompareAndSwap(cur, cur+n) {
			metrics.SessionRecordsHeld.Set(float64(cur + n))
			return n
		}
	}
}

func (s *Service) release(n int64) {
	if n > 0 {
		metrics.SessionRecordsHeld.Set(float64(s.held.Add(-n)))
	}
}

func (s *Service) getRaw(ctx context.Context, id string) (Entry, bool) {
	if id == "" {
		return Entry{}, false
	}
	if _, tracked := s.ledger.Get(ctx, id); !tracked {
		metrics.IncCacheLookup(TierRaw, false)
		return Entry{}, false
	}
	e, ok := s.raw.Get(ctx, id)
	metrics.IncCacheLookup(TierRaw, ok)
	if !ok {
		// dropped by the backend (server-side expiry); stop counting it
		s.ledger.Delete(ctx, id)
	}
	return e, ok
}

func (s *Service) getFiltered(ctx context.Context, id string) (FilteredEntry, bool) {
	if id == "" {
		return FilteredEntry{}, false
	}
	e, ok := s.filtered.Get(ctx, id)
	metrics.IncCacheLookup(TierFiltered, ok)
	return e, ok
}

// putRaw stores e, whose records must already be reserved. On failure the
// reservation is still owned by the caller.
func (s *Service) putRaw(ctx context.Context, e Entry) error {
	if err := s.raw.Set(ctx, e.ID, e); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return s.ledger.Set(ctx, e.ID, len(e.Records))
}

// Crawl lists and extracts every metadata object for opco between from and
// to, stores the result under a fresh id and returns it. Records on the first
// and last day must start within [from, to]; interior days are kept whole.
func (s *Service) Crawl(ctx context.Context, opco string, from, to time.Time) (entry Entry, err error) {
	src, ok := s.registry.Lookup(opco)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownSource, opco)
	}
	if s.held.Load() >= s.maxRecords {
		return Entry{}, ErrCapacityExceeded
	}

	ctx, span := telemetry.StartSpan(ctx, "session", "session.crawl", telemetry.CrawlAttributes(opco, from, to)...)
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if entry.Truncated {
			outcome = "truncated"
		}
		metrics.ObserveCrawl(opco, outcome, time.Since(start))
		if err == nil {
			span.SetAttributes(telemetry.SessionAttributes(entry.ID, "", len(entry.Records), entry.Truncated)...)
		}
		telemetry.EndSpan(span, err)
	}()

	records := []metadata.Record{}
	truncated := false
	var reserved int64
	defer func() {
		if err != nil {
			s.release(reserved)
		}
	}()
	days := locator.Days(from, to)

crawl:
	for i, day := range days {
		if err := ctx.Err(); err != nil {
			return Entry{}, err
		}
		boundary := i == 0 || i == len(days)-1
		prefix := locator.Prefix(opco, day, locator.Options{MetadataSubpath: src.MetadataSubpath})
		keys, err := s.store.List(ctx, prefix)
		if err != nil {
			return Entry{}, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, key := range keys {
			if !locator.IsMetadata(key) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return Entry{}, err
			}
			data, err := s.store.Get(ctx, key)
			if err != nil {
				metrics.CrawlObjects.WithLabelValues(opco, "error").Inc()
				return Entry{}, fmt.Errorf("get %s: %w", key, err)
			}
			extracted := src.Extractor.Extract(data)
			result := "ok"
			if len(extracted) == 0 {
				result = "empty"
			}
			metrics.CrawlObjects.WithLabelValues(opco, result).Inc()

			kept := extracted[:0]
			for _, rec := range extracted {
				if !boundary || startsWithin(rec, from, to) {
					kept = append(kept, rec)
				}
			}
			granted := s.reserve(int64(len(kept)))
			reserved += granted
			records = append(records, kept[:granted]...)
			if granted < int64(len(kept)) {
				truncated = true
				break crawl
			}
		}
	}
	if truncated && len(records) == 0 {
		return Entry{}, ErrCapacityExceeded
	}

	entry = Entry{ID: s.newID(), Opco: opco, From: from, To: to, Records: records, Truncated: truncated}
	if err := s.putRaw(ctx, entry); err != nil {
		return Entry{}, err
	}
	metrics.CrawlRecords.WithLabelValues(opco).Add(float64(len(records)))
	s.logger.Info().
		Str(log.FieldSessionID, entry.ID).
		Str(log.FieldOpco, opco).
		Int(log.FieldRecords, len(records)).
		Bool("truncated", truncated).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("crawl stored")
	return entry, nil
}

func startsWithin(r metadata.Record, from, to time.Time) bool {
	t, ok := r.StartTime()
	if !ok {
		return false
	}
	return !t.Before(from) && !t.After(to)
}

// RangeRequest asks for a page of a crawl, reusing SessionID when cached.
type RangeRequest struct {
	Opco       string
	From       time.Time
	To         time.Time
	SessionID  string
	PageNumber int
	PageSize   int
}

// Range resumes the cached crawl named by SessionID without touching the
// object store, or crawls afresh when it is absent.
func (s *Service) Range(ctx context.Context, req RangeRequest) (Page, error) {
	entry, ok := s.getRaw(ctx, req.SessionID)
	if !ok {
		var err error
		entry, err = s.Crawl(ctx, req.Opco, req.From, req.To)
		if err != nil {
			return Page{}, err
		}
	} else {
		s.logger.Debug().Str(log.FieldSessionID, entry.ID).Msg("resuming cached crawl")
	}
	return paginate(entry.Records, entry.ID, req.PageNumber, req.PageSize, false, entry.Truncated), nil
}

// RefineRequest filters a cached session.
type RefineRequest struct {
	SessionID  string
	Filter     Filter
	PageNumber int
	PageSize   int
}

// Refine filters the records behind SessionID and stores the result under a
// new id. A tier-2 entry with the same signature is reused as is.
func (s *Service) Refine(ctx context.Context, req RefineRequest) (page Page, err error) {
	ctx, span := telemetry.StartSpan(ctx, "session", "session.refine")
	defer func() { telemetry.EndSpan(span, err) }()

	sig := req.Filter.Signature()
	prior, priorOK := s.getFiltered(ctx, req.SessionID)

	var (
		records []metadata.Record
		origin  string
		stale   bool
		reused  bool
	)
	switch {
	case priorOK && prior.Signature.Equal(sig):
		records, origin, stale, reused = prior.Records, prior.OriginID, prior.Stale, true
	case req.Filter.Empty():
		if _, ok := s.getRaw(ctx, req.SessionID); ok || priorOK {
			return Page{}, ErrNoFilter
		}
		return Page{}, ErrSessionNotFound
	default:
		base, baseOrigin, baseStale, err := s.refinementBase(ctx, req.SessionID, prior, priorOK)
		if err != nil {
			return Page{}, err
		}
		origin, stale = baseOrigin, baseStale
		records = make([]metadata.Record, 0, len(base)/4)
		for _, r := range base {
			if req.Filter.Matches(r) {
				records = append(records, r)
			}
		}
	}

	entry := FilteredEntry{ID: s.newID(), OriginID: origin, Signature: sig, Records: records, Stale: stale}
	if err := s.filtered.Set(ctx, entry.ID, entry); err != nil {
		return Page{}, fmt.Errorf("store refinement: %w", err)
	}
	span.SetAttributes(telemetry.SessionAttributes(entry.ID, origin, len(records), false)...)
	s.logger.Debug().
		Str(log.FieldSessionID, entry.ID).
		Str(log.FieldOriginID, origin).
		Int(log.FieldRecords, len(records)).
		Bool("reused", reused).
		Bool("stale", stale).
		Msg("refinement stored")

	return paginate(records, entry.ID, req.PageNumber, req.PageSize, stale, false), nil
}

// refinementBase picks the records a new filter runs over: the raw crawl
// named by id, or the origin crawl of a tier-2 id, or, when allowed, the
// union of all cached crawls.
func (s *Service) refinementBase(ctx context.Context, id string, prior FilteredEntry, priorOK bool) ([]metadata.Record, string, bool, error) {
	if e, ok := s.getRaw(ctx, id); ok {
		return e.Records, e.ID, false, nil
	}
	if priorOK {
		if e, ok := s.getRaw(ctx, prior.OriginID); ok {
			return e.Records, e.ID, false, nil
		}
	}
	if !s.allowGlobal.Load() {
		return nil, "", false, ErrSessionNotFound
	}
	all, err := s.union(ctx)
	if err != nil {
		return nil, "", false, err
	}
	s.logger.Warn().Str(log.FieldSessionID, id).Int(log.FieldRecords, len(all)).Msg("session expired, filtering all cached crawls")
	return all, "", true, nil
}

func (s *Service) union(ctx context.Context) ([]metadata.Record, error) {
	keys, err := s.ledger.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var all []metadata.Record
	for _, k := range keys {
		if e, ok := s.getRaw(ctx, k); ok {
			all = append(all, e.Records...)
		}
	}
	return all, nil
}

func paginate(records []metadata.Record, id string, number, size int, stale, truncated bool) Page {
	p := query.NewPage(number, size, len(records))
	return Page{
		Page:      p,
		Records:   query.Slice(records, p),
		SessionID: id,
		Stale:     stale,
		Truncated: truncated,
	}
}
