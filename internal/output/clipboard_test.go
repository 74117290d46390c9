package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "hello from speakflow")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from speakflow", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestRunCommandOutputIncludesStderrOnFailure(t *testing.T) {
	_, err := runCommandOutput(context.Background(), []string{writeFailScript(t, "no clipboard owner")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no clipboard owner")
}

func TestCommandClipboardRoundTrip(t *testing.T) {
	clipPath := filepath.Join(t.TempDir(), "clipboard.txt")
	clip := CommandClipboard{
		CopyArgv: []string{writeStdinCaptureScript(t), clipPath},
		ReadArgv: []string{"cat", clipPath},
	}

	require.NoError(t, clip.Write(context.Background(), "captured transcript"))
	got, err := clip.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "captured transcript", got)
}

func TestCommandClipboardWriteFailure(t *testing.T) {
	clip := CommandClipboard{CopyArgv: []string{writeFailScript(t, "clipboard failed")}}
	err := clip.Write(context.Background(), "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func TestNewClipboardSelectsBackend(t *testing.T) {
	cfg := config.Default().Clipboard
	clip, ok := NewClipboard(cfg).(CommandClipboard)
	require.True(t, ok)
	require.Equal(t, []string{"wl-copy"}, clip.CopyArgv)
	require.Equal(t, []string{"wl-paste", "--no-newline"}, clip.ReadArgv)

	cfg.Backend = "System"
	require.IsType(t, SystemClipboard{}, NewClipboard(cfg))
}

func TestGuardSaveAndRestore(t *testing.T) {
	clip := &fakeClipboard{text: "before"}
	guard := NewGuard(clip, nil)

	snap := guard.Save(context.Background())
	require.Equal(t, Snapshot{Text: "before", Valid: true}, snap)

	clip.text = "during"
	require.NoError(t, guard.Restore(context.Background(), snap))
	require.Equal(t, "before", clip.text)
}

func TestGuardSaveReadFailureYieldsEmptySnapshot(t *testing.T) {
	clip := &fakeClipboard{readErr: os.ErrNotExist}
	snap := NewGuard(clip, nil).Save(context.Background())
	require.False(t, snap.Valid)
	require.Empty(t, snap.Text)
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
