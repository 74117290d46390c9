package output

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Status is the terminal state of one paste.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Policy controls clipboard handling when a paste fails.
type Policy struct {
	KeepOnFailure bool
}

// Result describes one paste.
type Result struct {
	Status   Status
	Attempts int
	Retained bool
	Err      error
}

// Timing holds the paste pacing.
type Timing struct {
	Settle       time.Duration
	RetryDelay   time.Duration
	RestoreDelay time.Duration
	Retries      int
}

// DefaultTiming settles 50ms after the clipboard write, retries once after
// 80ms, and waits 200ms before restoring.
var DefaultTiming = Timing{
	Settle:       50 * time.Millisecond,
	RetryDelay:   80 * time.Millisecond,
	RestoreDelay: 200 * time.Millisecond,
	Retries:      1,
}

// Injector places text on the clipboard and pastes it into the focused app.
type Injector struct {
	clipboard  Clipboard
	guard      *Guard
	dispatcher Dispatcher
	timing     Timing
	logger     *slog.Logger
}

// NewInjector builds an injector over a clipboard backend and dispatcher.
func NewInjector(clip Clipboard, dispatcher Dispatcher, timing Timing, logger *slog.Logger) *Injector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Injector{
		clipboard:  clip,
		guard:      NewGuard(clip, logger),
		dispatcher: dispatcher,
		timing:     timing,
		logger:     logger,
	}
}

// Paste saves the clipboard, writes text, dispatches the paste and restores
// the saved clipboard. On failure the clipboard is restored immediately
// unless policy keeps the dictation there. Restore always runs, even when ctx
// is cancelled mid-paste.
func (i *Injector) Paste(ctx context.Context, text string, policy Policy) Result {
	if text == "" {
		return Result{Status: StatusSuccess}
	}

	snap := i.guard.Save(ctx)
	restoreCtx := context.WithoutCancel(ctx)

	if err := i.clipboard.Write(ctx, text); err != nil {
		_ = i.guard.Restore(restoreCtx, snap)
		return i.failed(0, false, err)
	}

	attempts, err := i.dispatchWithRetry(ctx)
	if err != nil {
		if policy.KeepOnFailure {
			return i.failed(attempts, true, err)
		}
		_ = i.guard.Restore(restoreCtx, snap)
		return i.failed(attempts, false, err)
	}

	sleepCtx(restoreCtx, i.timing.RestoreDelay)
	_ = i.guard.Restore(restoreCtx, snap)
	return Result{Status: StatusSuccess, Attempts: attempts}
}

// PasteLast writes text and dispatches the paste without saving or
// restoring the clipboard, so the text stays available afterwards.
func (i *Injector) PasteLast(ctx context.Context, text string) Result {
	if text == "" {
		return i.failed(0, false, errors.New("empty text"))
	}
	if err := i.clipboard.Write(ctx, text); err != nil {
		return i.failed(0, false, err)
	}
	attempts, err := i.dispatchWithRetry(ctx)
	if err != nil {
		return i.failed(attempts, true, err)
	}
	return Result{Status: StatusSuccess, Attempts: attempts}
}

func (i *Injector) dispatchWithRetry(ctx context.Context) (int, error) {
	sleepCtx(ctx, i.timing.Settle)

	total := max(i.timing.Retries, 0) + 1
	var err error
	for attempt := 1; attempt <= total; attempt++ {
		if err = i.dispatcher.Dispatch(ctx); err == nil {
			return attempt, nil
		}
		i.logger.Debug("paste attempt failed", "method", i.dispatcher.Name(), "attempt", attempt, "error", err.Error())
		if attempt == total || ctx.Err() != nil {
			return attempt, err
		}
		sleepCtx(ctx, i.timing.RetryDelay)
	}
	return total, err
}

func (i *Injector) failed(attempts int, retained bool, err error) Result {
	perr := &PasteError{
		Method:   i.dispatcher.Name(),
		Attempts: attempts,
		Retained: retained,
		Err:      err,
	}
	return Result{Status: StatusFailed, Attempts: attempts, Retained: retained, Err: perr}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
