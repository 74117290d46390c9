// Package output owns the clipboard and paste side effects of a dictation.
package output

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

const clipboardTimeout = 2 * time.Second

// Clipboard reads and writes the system clipboard text.
type Clipboard interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// NewClipboard returns the backend named in cfg. "system" uses the
// platform clipboard tools through atotto/clipboard; anything else runs the
// configured copy/read commands.
func NewClipboard(cfg config.ClipboardConfig) Clipboard {
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "system") {
		return SystemClipboard{}
	}
	return CommandClipboard{
		CopyArgv: append([]string(nil), cfg.Copy.Argv...),
		ReadArgv: append([]string(nil), cfg.Read.Argv...),
	}
}

// CommandClipboard pipes text through external commands such as wl-copy.
type CommandClipboard struct {
	CopyArgv []string
	ReadArgv []string
}

func (c CommandClipboard) Read(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	out, err := runCommandOutput(ctx, c.ReadArgv)
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return out, nil
}

func (c CommandClipboard) Write(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(ctx, c.CopyArgv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	return nil
}

// SystemClipboard uses atotto/clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Read(context.Context) (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

func (SystemClipboard) Write(_ context.Context, text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError(argv[0], err, stderr.String())
	}
	return nil
}

// runCommandOutput executes argv and returns its stdout.
func runCommandOutput(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", commandError(argv[0], err, stderr.String())
	}
	return stdout.String(), nil
}

func commandError(name string, err error, stderr string) error {
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		return fmt.Errorf("%s failed: %w (%s)", name, err, trimmed)
	}
	return fmt.Errorf("%s failed: %w", name, err)
}
