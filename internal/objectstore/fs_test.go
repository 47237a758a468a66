// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s Store, objects map[string]string) {
	t.Helper()
	for k, v := range objects {
		require.NoError(t, Put(context.Background(), s, k, strings.NewReader(v)))
	}
}

func TestFS_ListGetOpen(t *testing.T) {
	ctx := context.Background()
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	seed(t, s, map[string]string{
		"CMP/2016/1/1/Metadata/a.xml":  "<a/>",
		"CMP/2016/1/1/Metadata/b.xml":  "<b/>",
		"CMP/2016/1/1/a.wav":           "RIFF",
		"CMP/2016/1/10/Metadata/c.xml": "<c/>",
	})

	keys, err := s.List(ctx, "CMP/2016/1/1/Metadata/")
	require.NoError(t, err)
	assert.Equal(t, []string{"CMP/2016/1/1/Metadata/a.xml", "CMP/2016/1/1/Metadata/b.xml"}, keys)

	keys, err = s.List(ctx, "CMP/2016/1/1/a.wav")
	require.NoError(t, err)
	assert.Equal(t, []string{"CMP/2016/1/1/a.wav"}, keys)

	keys, err = s.List(ctx, "RGE/2020/2/2/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	data, err := s.Get(ctx, "CMP/2016/1/1/Metadata/b.xml")
	require.NoError(t, err)
	assert.Equal(t, "<b/>", string(data))

	rc, err := s.Open(ctx, "CMP/2016/1/1/a.wav")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	assert.Equal(t, "RIFF", string(body))

	_, err = s.Get(ctx, "CMP/2016/1/1/missing.wav")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFS_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFS(filepath.Join(root, "store"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.xml"), []byte("x"), 0o600))

	_, err = s.Get(ctx, "../secret.xml")
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = s.Put(ctx, "../../evil.wav", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.List(ctx, "../")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFS_PutReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFS(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "RGE/2021/3/4/x.xml", strings.NewReader("one")))
	require.NoError(t, s.Put(ctx, "RGE/2021/3/4/x.xml", strings.NewReader("two")))

	data, err := s.Get(ctx, "RGE/2021/3/4/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "RGE", "2021", "3", "4"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no pending files left behind")
}

func TestFS_ListHonoursCancellation(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)
	seed(t, s, map[string]string{"NYSEG/2019/5/5/a.xml": "<a/>"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.List(ctx, "NYSEG/2019/5/5/")
	assert.True(t, errors.Is(err, context.Canceled))
}
