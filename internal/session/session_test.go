// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/callvault/internal/cache"
	"github.com/ManuGH/callvault/internal/metadata"
	"github.com/ManuGH/callvault/internal/objectstore"
)

const cmpDay1 = `<Export><Objects>
  <Media><extensionNum>100</extensionNum><objectID>o1</objectID><startTime>1/1/2016 10:00:00 AM</startTime><fullName>Alice Smith</fullName></Media>
  <Media><extensionNum>200</extensionNum><objectID>o2</objectID><startTime>1/1/2016 11:00:00 AM</startTime><fullName>Bob Jones</fullName></Media>
</Objects></Export>`

// countingStore records calls made to the wrapped store.
type countingStore struct {
	objectstore.Store
	mu    sync.Mutex
	lists []string
	gets  int
}

func (c *countingStore) List(ctx context.Context, prefix string) ([]string, error) {
	c.mu.Lock()
	c.lists = append(c.lists, prefix)
	c.mu.Unlock()
	return c.Store.List(ctx, prefix)
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.Store.Get(ctx, key)
}

func (c *countingStore) listCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lists)
}

func newStore(t *testing.T, objects map[string]string) *countingStore {
	t.Helper()
	fs, err := objectstore.NewFS(t.TempDir())
	require.NoError(t, err)
	for k, v := range objects {
		require.NoError(t, fs.Put(context.Background(), k, strings.NewReader(v)))
	}
	return &countingStore{Store: fs}
}

func newService(t *testing.T, store objectstore.Store, opts Options) *Service {
	t.Helper()
	raw := cache.NewMemory(cache.Options[Entry]{})
	filtered := cache.NewMemory(cache.Options[FilteredEntry]{TTL: opts.TTL, MaxEntries: opts.MaxEntries})
	s := New(store, metadata.DefaultRegistry(), raw, filtered, opts)
	t.Cleanup(s.Close)
	return s
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.DateTime, s)
	require.NoError(t, err)
	return v
}

func TestCMPCrawlThenFilter(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string]string{
		"CMP/2016/1/1/Metadata/a.xml": cmpDay1,
		"CMP/2016/1/1/a.wav":          "RIFF",
	})
	s := newService(t, store, Options{})

	page, err := s.Range(ctx, RangeRequest{
		Opco: "CMP", From: day(t, "2016-01-01 00:00:00"), To: day(t, "2016-01-01 23:59:59"),
		PageNumber: 1, PageSize: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalRecords)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Records, 2)
	assert.Equal(t, []string{"CMP/2016/1/1/Metadata/"}, store.lists)

	refined, err := s.Refine(ctx, RefineRequest{
		SessionID:  page.SessionID,
		Filter:     Filter{ExtensionNum: []string{"100"}},
		PageNumber: 1, PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, refined.TotalRecords)
	require.Len(t, refined.Records, 1)
	assert.Equal(t, "o1", refined.Records[0].String(metadata.FieldObjectID))
	assert.NotEqual(t, page.SessionID, refined.SessionID)
	assert.False(t, refined.Stale)
}

func TestRangeResumesWithoutRelisting(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1})
	s := newService(t, store, Options{})

	req := RangeRequest{Opco: "CMP", From: day(t, "2016-01-01 00:00:00"), To: day(t, "2016-01-01 23:00:00"), PageNumber: 1, PageSize: 1}
	first, err := s.Range(ctx, req)
	require.NoError(t, err)
	lists, gets := store.listCount(), store.gets

	req.SessionID = first.SessionID
	req.PageNumber = 2
	second, err := s.Range(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, lists, store.listCount(), "no listing on resume")
	assert.Equal(t, gets, store.gets, "no fetch on resume")
	assert.Equal(t, 2, second.TotalPages)
	require.Len(t, second.Records, 1)
	assert.Equal(t, "200", second.Records[0].String(metadata.FieldExtensionNum))

	req.PageNumber = 3
	past, err := s.Range(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, past.Records)
	assert.Equal(t, 2, past.TotalRecords)
}

func TestCrawlBoundaryDays(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string]string{
		"RGE/2020/2/1/a.xml": `<Call><startTime>2/1/2020 8:00:00 AM</startTime><id>early</id></Call>`,
		"RGE/2020/2/1/b.xml": `<Call><startTime>2/1/2020 6:00:00 PM</startTime><id>in-first</id></Call>`,
		"RGE/2020/2/2/c.xml": `<Call><id>interior-no-time</id></Call>`,
		"RGE/2020/2/3/d.xml": `<Call><startTime>2/3/2020 9:00:00 AM</startTime><id>in-last</id></Call>`,
		"RGE/2020/2/3/e.xml": `<Call><startTime>2/3/2020 9:00:01 AM</startTime><id>late</id></Call>`,
		"RGE/2020/2/3/f.xml": `<Call><id>last-no-time</id></Call>`,
		"RGE/2020/2/3/g.wav": "RIFF",
		"RGE/2020/2/3/h.xml": `<Call><broken`,
	})
	s := newService(t, store, Options{})

	entry, err := s.Crawl(ctx, "RGE", day(t, "2020-02-01 12:00:00"), day(t, "2020-02-03 09:00:00"))
	require.NoError(t, err)

	var ids []string
	for _, r := range entry.Records {
		ids = append(ids, r.String("id"))
	}
	assert.ElementsMatch(t, []string{"in-first", "interior-no-time", "in-last"}, ids)
	assert.False(t, entry.Truncated)
	assert.Equal(t, []string{"RGE/2020/2/1/", "RGE/2020/2/2/", "RGE/2020/2/3/"}, store.lists)
}

func TestCrawlUnknownSource(t *testing.T) {
	s := newService(t, newStore(t, nil), Options{})
	_, err := s.Crawl(context.Background(), "XYZ", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestCrawlCancellationDiscardsResult(t *testing.T) {
	store := newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1})
	s := newService(t, store, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Crawl(ctx, "CMP", day(t, "2016-01-01 00:00:00"), day(t, "2016-01-02 00:00:00"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Held())
}

func TestRecordCap(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1})
	s := newService(t, store, Options{MaxRecords: 1})
	from, to := day(t, "2016-01-01 00:00:00"), day(t, "2016-01-01 23:59:59")

	entry, err := s.Crawl(ctx, "CMP", from, to)
	require.NoError(t, err)
	assert.True(t, entry.Truncated)
	assert.Len(t, entry.Records, 1)
	assert.Equal(t, int64(1), s.Held())

	_, err = s.Crawl(ctx, "CMP", from, to)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestRecordCapReleasedOnEviction(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1})
	s := newService(t, store, Options{MaxRecords: 4, MaxEntries: 1})
	from, to := day(t, "2016-01-01 00:00:00"), day(t, "2016-01-01 23:59:59")

	first, err := s.Crawl(ctx, "CMP", from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Held())

	_, err = s.Crawl(ctx, "CMP", from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Held(), "first crawl evicted by LRU bound")

	_, ok := s.raw.Get(ctx, first.ID)
	assert.False(t, ok)
}

// slowStore delays listings so that concurrent crawls overlap.
type slowStore struct {
	objectstore.Store
	delay   time.Duration
	failDay string
}

func (s *slowStore) List(ctx context.Context, prefix string) ([]string, error) {
	time.Sleep(s.delay)
	if s.failDay != "" && strings.Contains(prefix, s.failDay) {
		return nil, errors.New("listing unavailable")
	}
	return s.Store.List(ctx, prefix)
}

func TestRecordCapHoldsAcrossConcurrentCrawls(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{Store: newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1}), delay: 50 * time.Millisecond}
	s := newService(t, store, Options{MaxRecords: 2})
	from, to := day(t, "2016-01-01 00:00:00"), day(t, "2016-01-01 23:59:59")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := s.Crawl(ctx, "CMP", from, to)
			if err != nil {
				assert.ErrorIs(t, err, ErrCapacityExceeded)
				return
			}
			mu.Lock()
			total += len(entry.Records)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), s.Held())
	assert.Equal(t, 2, total)
}

func TestFailedCrawlReleasesReservation(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{
		Store:   newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1}),
		failDay: "CMP/2016/1/2/",
	}
	s := newService(t, store, Options{MaxRecords: 10})

	_, err := s.Crawl(ctx, "CMP", day(t, "2016-01-01 00:00:00"), day(t, "2016-01-02 23:59:59"))
	require.Error(t, err)
	assert.Zero(t, s.Held())
}

func TestRawTierFollowsLedger(t *testing.T) {
	ctx := context.Background()
	s := newService(t, newStore(t, nil), Options{MaxEntries: 2, AllowGlobalFallback: true})
	a := seedSession(t, s, metadata.Record{"extensionNum": "100"})
	b := seedSession(t, s, metadata.Record{"extensionNum": "100"})

	// union reads must not reorder eviction between the ledger and the raw tier
	_, err := s.Refine(ctx, RefineRequest{SessionID: "gone", Filter: Filter{ExtensionNum: []string{"100"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	_, ok := s.getRaw(ctx, b)
	require.True(t, ok)

	seedSession(t, s, metadata.Record{"extensionNum": "100"}, metadata.Record{"extensionNum": "200"})
	assert.Equal(t, int64(3), s.Held())
	_, ok = s.raw.Get(ctx, a)
	assert.False(t, ok, "evicted crawl removed from the raw tier")

	page, err := s.Refine(ctx, RefineRequest{SessionID: "gone", Filter: Filter{ExtensionNum: []string{"100"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalRecords)
}

func TestRangeHugePageNumber(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string]string{"CMP/2016/1/1/Metadata/a.xml": cmpDay1})
	s := newService(t, store, Options{})
	req := RangeRequest{Opco: "CMP", From: day(t, "2016-01-01 00:00:00"), To: day(t, "2016-01-01 23:59:59"), PageNumber: 1<<62 + 1, PageSize: 4}

	page, err := s.Range(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Equal(t, 2, page.TotalRecords)

	req.SessionID, req.PageSize = page.SessionID, 2
	assert.NotPanics(t, func() {
		page, err = s.Range(ctx, req)
	})
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}

func seedSession(t *testing.T, s *Service, records ...metadata.Record) string {
	t.Helper()
	e := Entry{ID: s.newID(), Opco: "CMP", Records: records}
	require.Equal(t, int64(len(records)), s.reserve(int64(len(records))))
	require.NoError(t, s.putRaw(context.Background(), e))
	return e.ID
}

func TestRefineSignatureReuse(t *testing.T) {
	ctx := context.Background()
	s := newService(t, newStore(t, nil), Options{})
	origin := seedSession(t, s,
		metadata.Record{"extensionNum": "100", "channelNum": "1"},
		metadata.Record{"extensionNum": "100", "channelNum": "2"},
		metadata.Record{"extensionNum": "300", "channelNum": "1"},
	)

	f := Filter{ExtensionNum: []string{"100"}}
	first, err := s.Refine(ctx, RefineRequest{SessionID: origin, Filter: f, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalRecords)

	// Drop the origin: a same-signature refinement must not need it.
	s.raw.Delete(ctx, origin)
	again, err := s.Refine(ctx, RefineRequest{SessionID: first.SessionID, Filter: Filter{ExtensionNum: []string{"100"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, again.TotalRecords)
	assert.NotEqual(t, first.SessionID, again.SessionID)

	stored, ok := s.filtered.Get(ctx, again.SessionID)
	require.True(t, ok)
	assert.Equal(t, origin, stored.OriginID)
}

func TestRefineNewSignatureUsesOrigin(t *testing.T) {
	ctx := context.Background()
	s := newService(t, newStore(t, nil), Options{})
	origin := seedSession(t, s,
		metadata.Record{"extensionNum": "100", "channelNum": "1"},
		metadata.Record{"extensionNum": "300", "channelNum": "1"},
	)

	first, err := s.Refine(ctx, RefineRequest{SessionID: origin, Filter: Filter{ExtensionNum: []string{"100"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalRecords)

	// A different filter against the tier-2 id runs over the full origin, not the narrowed list.
	second, err := s.Refine(ctx, RefineRequest{SessionID: first.SessionID, Filter: Filter{ExtensionNum: []string{"300"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalRecords)
	assert.Equal(t, "300", second.Records[0].String("extensionNum"))
}

func TestRefineErrors(t *testing.T) {
	ctx := context.Background()
	s := newService(t, newStore(t, nil), Options{})
	origin := seedSession(t, s, metadata.Record{"extensionNum": "100"})

	_, err := s.Refine(ctx, RefineRequest{SessionID: origin, PageNumber: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrNoFilter)

	_, err = s.Refine(ctx, RefineRequest{SessionID: "missing", PageNumber: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.Refine(ctx, RefineRequest{SessionID: "missing", Filter: Filter{Name: []string{"x"}}, PageNumber: 1, PageSize: 10})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRefineGlobalFallbackIsStale(t *testing.T) {
	ctx := context.Background()
	s := newService(t, newStore(t, nil), Options{AllowGlobalFallback: true})
	seedSession(t, s, metadata.Record{"extensionNum": "100"})
	seedSession(t, s, metadata.Record{"extensionNum": "100"}, metadata.Record{"extensionNum": "200"})

	page, err := s.Refine(ctx, RefineRequest{SessionID: "expired", Filter: Filter{ExtensionNum: []string{"100"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, page.Stale)
	assert.Equal(t, 2, page.TotalRecords)

	// the stale flag survives signature reuse
	again, err := s.Refine(ctx, RefineRequest{SessionID: page.SessionID, Filter: Filter{ExtensionNum: []string{"100"}}, PageNumber: 1, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, again.Stale)
}

func TestRefineAcrossManySessions(t *testing.T) {
	ctx := context.Background()
	s := newService(t, newStore(t, nil), Options{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := seedSession(t, s, metadata.Record{"extensionNum": fmt.Sprint(i)})
		wg.Add(1)
		go func(id string, i int) {
			defer wg.Done()
			page, err := s.Refine(ctx, RefineRequest{SessionID: id, Filter: Filter{ExtensionNum: []string{fmt.Sprint(i)}}, PageNumber: 1, PageSize: 5})
			assert.NoError(t, err)
			assert.Equal(t, 1, page.TotalRecords)
		}(id, i)
	}
	wg.Wait()
}
