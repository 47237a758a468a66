// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/query"
)

func openTestRepo(t *testing.T) (*Repository, config.DatabaseConfig) {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		DSN:            filepath.Join(t.TempDir(), "db", "recordings.db"),
		MigrateOnStart: true,
		MaxOpenConns:   4,
	}
	repo, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, cfg
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedRecordings(t *testing.T, repo *Repository) []Recording {
	t.Helper()
	recs := []Recording{
		{FileName: "call-a.wav", ExtensionNum: "100", ObjectID: "obj-1", ChannelNum: "7", AniAliDigits: "5551234", Name: "Alice Smith", DateAdded: base, Opco: "CMP", AgentID: "ag1", Duration: "60", Direction: "inbound"},
		{FileName: "call-b.wav", ExtensionNum: "200", ObjectID: "obj-2", ChannelNum: "8", AniAliDigits: "5559876", Name: "Bob 100% Jones", DateAdded: base.Add(time.Hour), Opco: "RGE", AgentID: "ag2", Duration: "30", Direction: "outbound"},
		{FileName: "call_c.wav", ExtensionNum: "1000", ObjectID: "obj-3", ChannelNum: "9", AniAliDigits: "5550000", Name: "Carol", DateAdded: base.Add(2 * time.Hour), Opco: "NYSEG", AgentID: "ag3", Duration: "90", Direction: "inbound"},
		{FileName: "callxc.wav", ExtensionNum: "300", ObjectID: "obj-4", ChannelNum: "10", AniAliDigits: "5551111", Name: "Dave", DateAdded: base.Add(24 * time.Hour), Opco: "CMP", AgentID: "ag4", Duration: "15", Direction: "outbound"},
	}
	ctx := context.Background()
	for i := range recs {
		id, err := repo.Insert(ctx, recs[i])
		require.NoError(t, err)
		recs[i].ID = id
	}
	return recs
}

func fileNames(recs []Recording) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.FileName
	}
	return out
}

func TestFindPage_NewestFirstWithTotals(t *testing.T) {
	repo, _ := openTestRepo(t)
	seedRecordings(t, repo)
	ctx := context.Background()

	got, page, err := repo.FindPage(ctx, query.Predicate{}, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, query.Page{PageNumber: 1, PageSize: 3, TotalRecords: 4, TotalPages: 2}, page)
	assert.Equal(t, []string{"callxc.wav", "call_c.wav", "call-b.wav"}, fileNames(got))

	got, page, err = repo.FindPage(ctx, query.Predicate{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, []string{"call-a.wav"}, fileNames(got))

	got, _, err = repo.FindPage(ctx, query.Predicate{}, 5, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindPage_ExtremePages(t *testing.T) {
	repo, _ := openTestRepo(t)
	seedRecordings(t, repo)
	ctx := context.Background()

	got, page, err := repo.FindPage(ctx, query.Predicate{}, 1, math.MaxInt32)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 1, page.TotalPages)

	got, page, err = repo.FindPage(ctx, query.Predicate{}, 1<<62+1, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 4, page.TotalRecords)
}

func TestFindPage_Predicates(t *testing.T) {
	repo, _ := openTestRepo(t)
	seedRecordings(t, repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		where query.Predicate
		want  []string
	}{
		{
			name:  "extension substring",
			where: query.ContainsAny(query.ColExtensionNum, []string{"100"}),
			want:  []string{"call_c.wav", "call-a.wav"},
		},
		{
			name:  "underscore is literal",
			where: query.Contains(query.ColFileName, "call_"),
			want:  []string{"call_c.wav"},
		},
		{
			name:  "percent is literal",
			where: query.Contains(query.ColName, "100%"),
			want:  []string{"call-b.wav"},
		},
		{
			name:  "case insensitive",
			where: query.Contains(query.ColName, "alice"),
			want:  []string{"call-a.wav"},
		},
		{
			name: "date range and opco",
			where: query.And(
				query.DateRange(query.ColDateAdded, ptr(base), ptr(base.Add(23*time.Hour))),
				query.Contains(query.ColOpco, "cm"),
			),
			want: []string{"call-a.wav"},
		},
		{
			name:  "open ended range",
			where: query.DateRange(query.ColDateAdded, ptr(base.Add(90*time.Minute)), nil),
			want:  []string{"callxc.wav", "call_c.wav"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, page, err := repo.FindPage(ctx, tt.where, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fileNames(got))
			assert.Equal(t, len(tt.want), page.TotalRecords)
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestFindByOpcoAndFileName(t *testing.T) {
	repo, _ := openTestRepo(t)
	recs := seedRecordings(t, repo)
	ctx := context.Background()

	got, err := repo.FindByOpcoAndFileName(ctx, "RGE", "call-b.wav")
	require.NoError(t, err)
	require.Len(t, got, 1)
	if diff := cmp.Diff(recs[1], got[0], cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Fatalf("recording mismatch (-want +got):\n%s", diff)
	}

	got, err = repo.FindByOpcoAndFileName(ctx, "CMP", "call-b.wav")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMigrateDownAndUp(t *testing.T) {
	repo, cfg := openTestRepo(t)
	seedRecordings(t, repo)
	require.NoError(t, repo.Close())

	require.NoError(t, Migrate(cfg, DirectionDown, 0))
	require.NoError(t, Migrate(cfg, DirectionUp, 0))
	// already current
	require.NoError(t, Migrate(cfg, DirectionUp, 0))

	repo2, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer repo2.Close()
	_, page, err := repo2.FindPage(context.Background(), query.Predicate{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalRecords)
}

func TestMigrate_UnknownDirection(t *testing.T) {
	_, cfg := openTestRepo(t)
	assert.Error(t, Migrate(cfg, "sideways", 0))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
