package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireRecoversStaleSocket(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	socketPath := filepath.Join(dir, "speakflow.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	var stale []string
	listener, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 2, func(path string) {
		stale = append(stale, path)
	})
	require.NoError(t, err)
	defer listener.Close()

	require.Equal(t, []string{socketPath}, stale)
}

func TestAcquireGivesUpWithoutRetries(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "speakflow.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, err := Acquire(context.Background(), socketPath, 50*time.Millisecond, 0, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "still in use")
}

func TestAcquireReturnsAlreadyRunningWhenSocketResponsive(t *testing.T) {
	t.Parallel()

	path, _ := startServer(t, func(context.Context, Request) Response {
		return Response{OK: true, State: "recording"}
	})

	staleCalled := false
	_, err := Acquire(context.Background(), path, 80*time.Millisecond, 1, func(string) { staleCalled = true })
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.False(t, staleCalled)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "live socket must not be removed")
}

func TestAcquireDoesNotUnlinkWhenProbeInconclusive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	socketPath := filepath.Join(dir, "speakflow.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	_, err = Acquire(context.Background(), socketPath, 30*time.Millisecond, 1, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-acceptDone
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err := RuntimeSocketPath()
	require.ErrorContains(t, err, "XDG_RUNTIME_DIR")

	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "speakflow.sock"), path)
}
