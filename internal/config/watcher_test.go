package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"language_mode": "english"}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		changes []LanguageMode
	)
	w := NewWatcher(loaded, nil,
		WithInterval(10*time.Millisecond),
		WithOnChange(func(_, next Config) {
			mu.Lock()
			changes = append(changes, next.LanguageMode)
			mu.Unlock()
		}),
	)
	require.Equal(t, LanguageEnglish, w.Current().LanguageMode)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte(`{"language_mode": "hinglish_roman"}`), 0o600))
	require.NoError(t, os.Chtimes(path, future, future))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return w.Current().LanguageMode == LanguageHinglishRoman
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []LanguageMode{LanguageHinglishRoman}, changes)
}

func TestWatcherKeepsPreviousConfigOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"cleanup_provider": "groq"}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	w := NewWatcher(loaded, nil)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte(`{ broken`), 0o600))
	require.NoError(t, os.Chtimes(path, future, future))

	w.check()
	require.Equal(t, ProviderGroq, w.Current().Cleanup.Provider)
}

func TestWatcherSnapshotIsIndependentCopy(t *testing.T) {
	w := NewWatcher(Loaded{Path: filepath.Join(t.TempDir(), "absent.jsonc"), Config: Default()}, nil)
	snapshot := w.Current()
	snapshot.Duck.TargetPercent = 99
	require.Equal(t, 8, w.Current().Duck.TargetPercent)
}
