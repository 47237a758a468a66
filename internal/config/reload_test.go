// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ManuGH/callvault/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigHolderReloadNotifiesListeners(t *testing.T) {
	isolateFSRoot(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "test")

	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewConfigHolder(initial, loader, path)
	ch := make(chan AppConfig, 1)
	holder.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	require.NoError(t, holder.Reload(context.Background()))
	t.Cleanup(func() { _ = log.SetLevel("info") })

	assert.Equal(t, "warn", holder.Get().Log.Level)
	select {
	case got := <-ch:
		assert.Equal(t, "warn", got.Log.Level)
	default:
		t.Fatal("listener not notified")
	}
}

func TestConfigHolderReloadKeepsOldOnError(t *testing.T) {
	isolateFSRoot(t)
	path := writeConfig(t, "log:\n  level: info\n")
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewConfigHolder(initial, loader, path)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: chatty\n"), 0o600))

	require.Error(t, holder.Reload(context.Background()))
	assert.Equal(t, "info", holder.Get().Log.Level)
}

func TestConfigHolderWatcherPicksUpChanges(t *testing.T) {
	isolateFSRoot(t)
	path := writeConfig(t, "session:\n  allowGlobalFallback: false\n")
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewConfigHolder(initial, loader, path)
	holder.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, holder.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("session:\n  allowGlobalFallback: true\n"), 0o600))

	assert.Eventually(t, func() bool {
		return holder.Get().Session.AllowGlobalFallback
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStartWatcherWithoutPathIsNoop(t *testing.T) {
	holder := NewConfigHolder(Defaults(), NewLoader("", ""), "")
	require.NoError(t, holder.StartWatcher(context.Background()))
	holder.Stop()
}
