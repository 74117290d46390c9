package output

import (
	"context"
	"log/slog"
)

// Snapshot is the clipboard content captured before one paste attempt.
// Valid is false when the clipboard could not be read; restoring an invalid
// snapshot writes an empty clipboard.
type Snapshot struct {
	Text  string
	Valid bool
}

// Guard saves the clipboard before a paste and puts it back afterwards.
type Guard struct {
	clipboard Clipboard
	logger    *slog.Logger
}

// NewGuard wraps a clipboard backend.
func NewGuard(clip Clipboard, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{clipboard: clip, logger: logger}
}

// Save captures the current clipboard text. Read failures are logged and
// yield an empty snapshot.
func (g *Guard) Save(ctx context.Context) Snapshot {
	text, err := g.clipboard.Read(ctx)
	if err != nil {
		g.logger.Debug("clipboard snapshot unavailable", "error", err.Error())
		return Snapshot{}
	}
	return Snapshot{Text: text, Valid: true}
}

// Restore writes snap back to the clipboard.
func (g *Guard) Restore(ctx context.Context, snap Snapshot) error {
	if err := g.clipboard.Write(ctx, snap.Text); err != nil {
		g.logger.Warn("clipboard restore failed", "error", err.Error())
		return err
	}
	return nil
}
