package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateDirUsesXDGStateHome(t *testing.T) {
	xdgStateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("HOME", t.TempDir())

	dir, err := StateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdgStateHome, "speakflow"), dir)
}

func TestStateDirFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	dir, err := StateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "speakflow"), dir)
}

func TestNewCreatesWritableJSONLogFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New()
	require.NoError(t, err)

	runtime.Logger.Info("unit-test-log", "component", "logging")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"unit-test-log"`)
	require.Contains(t, string(contents), `"component":"logging"`)

	stat, err := os.Stat(runtime.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestSetLevelEnablesDebugRecords(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New()
	require.NoError(t, err)

	runtime.Logger.Debug("hidden-debug")
	runtime.SetLevel("debug")
	runtime.Logger.Debug("visible-debug")
	runtime.SetLevel("nonsense")
	runtime.Logger.Debug("still-visible")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "hidden-debug")
	require.Contains(t, string(contents), "visible-debug")
	require.Contains(t, string(contents), "still-visible")
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel(" WARN ")
	require.True(t, ok)
	require.Equal(t, slog.LevelWarn, level)

	_, ok = ParseLevel("trace")
	require.False(t, ok)
}
