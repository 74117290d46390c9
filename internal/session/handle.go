package session

import (
	"context"
	"fmt"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/fsm"
	"github.com/agarwal-mihir/SpeakFlow/internal/hotkey"
	"github.com/agarwal-mihir/SpeakFlow/internal/ipc"
)

const replyTimeout = 2 * time.Second

// Handle serves IPC commands by queueing them on the controller loop.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.State()), Level: c.Level(), Message: "status"}
	case ipc.CommandPress:
		return c.request(ctx, EventPress, "recording")
	case ipc.CommandRelease, ipc.CommandStop:
		return c.request(ctx, EventRelease, "stopping")
	case ipc.CommandToggle:
		return c.request(ctx, EventToggle, "toggled")
	case ipc.CommandCancel:
		return c.request(ctx, EventCancel, "cancelled")
	case ipc.CommandPasteLast:
		return c.request(ctx, EventPasteLast, "pasting last dictation")
	case ipc.CommandKey:
		return c.handleKey(req)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// request queues kind and waits for the loop's verdict.
func (c *Controller) request(ctx context.Context, kind EventKind, message string) ipc.Response {
	reply := make(chan error, 1)
	if !c.Submit(Event{Kind: kind, reply: reply}) {
		return ipc.Response{OK: false, State: string(c.State()), Error: ErrQueueFull.Error()}
	}

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()

	select {
	case err := <-reply:
		if err != nil {
			return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(c.State()), Message: message}
	case <-ctx.Done():
		return ipc.Response{OK: false, State: string(c.State()), Error: ctx.Err().Error()}
	case <-timer.C:
		return ipc.Response{OK: true, State: string(c.State()), Message: "queued"}
	}
}

// handleKey feeds one raw edge to the hotkey listener and queues the
// resulting action without waiting.
func (c *Controller) handleKey(req ipc.Request) ipc.Response {
	cfg := c.deps.Config()
	c.keys.Reconfigure(cfg.HotkeyMode, cfg.Paste.LastShortcutEnabled)

	action := c.keys.Feed(req.Key, req.Down)
	var kind EventKind
	switch action {
	case hotkey.ActionPress:
		kind = EventPress
	case hotkey.ActionRelease:
		kind = EventRelease
	case hotkey.ActionPasteLast:
		kind = EventPasteLast
	default:
		return ipc.Response{OK: true, State: string(c.State()), Message: action.String()}
	}

	if !c.Submit(Event{Kind: kind}) {
		return ipc.Response{OK: false, State: string(c.State()), Error: ErrQueueFull.Error()}
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: action.String()}
}

func invalidRequest(verb string, state fsm.State) error {
	return fmt.Errorf("cannot %s from state %s", verb, state)
}
