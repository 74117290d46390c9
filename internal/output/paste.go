package output

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/hypr"
)

// Dispatcher sends the paste keystroke to the focused application.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context) error
}

// NewDispatcher returns the dispatcher named by paste.method.
func NewDispatcher(cfg config.Config) Dispatcher {
	switch strings.ToLower(strings.TrimSpace(cfg.Paste.Method)) {
	case "command":
		return CommandDispatcher{Argv: append([]string(nil), cfg.PasteCmd.Argv...)}
	case "uinput":
		return defaultUinput
	default:
		return HyprDispatcher{Shortcut: cfg.Paste.Shortcut}
	}
}

// HyprDispatcher sends a Hyprland sendshortcut to the active window.
type HyprDispatcher struct {
	Shortcut string
}

func (HyprDispatcher) Name() string { return "hypr" }

func (d HyprDispatcher) Dispatch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer cancel()

	window, err := activeWindowWithRetry(ctx, 5, 10*time.Millisecond)
	if err != nil {
		return err
	}
	payload, err := buildPasteShortcut(d.Shortcut, window.Address)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, payload)
}

// CommandDispatcher runs paste_cmd.
type CommandDispatcher struct {
	Argv []string
}

func (CommandDispatcher) Name() string { return "command" }

func (d CommandDispatcher) Dispatch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return runCommandWithInput(ctx, d.Argv, "")
}

// uinputRegistration is how long a fresh virtual keyboard needs before the
// compositor accepts its events.
const uinputRegistration = 2 * time.Second

// UinputDispatcher presses Ctrl+V on a virtual keyboard. The device is
// created on first use and reused afterwards.
type UinputDispatcher struct {
	once    sync.Once
	mu      sync.Mutex
	kb      keybd_event.KeyBonding
	initErr error
}

var defaultUinput = &UinputDispatcher{}

func (*UinputDispatcher) Name() string { return "uinput" }

func (d *UinputDispatcher) Dispatch(ctx context.Context) error {
	d.once.Do(func() {
		d.kb, d.initErr = keybd_event.NewKeyBonding()
		if d.initErr == nil {
			time.Sleep(uinputRegistration)
		}
	})
	if d.initErr != nil {
		return fmt.Errorf("create virtual keyboard: %w", d.initErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.kb.Clear()
	d.kb.HasCTRL(true)
	d.kb.SetKeys(keybd_event.VK_V)
	if err := d.kb.Launching(); err != nil {
		return fmt.Errorf("send ctrl+v: %w", err)
	}
	return nil
}

func buildPasteShortcut(shortcut string, windowAddress string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", fmt.Errorf("paste shortcut cannot be empty")
	}

	address := strings.TrimSpace(windowAddress)
	if address == "" {
		return "", fmt.Errorf("active window address is required")
	}

	return fmt.Sprintf("%s,address:%s", shortcut, address), nil
}

func activeWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (hypr.ActiveWindow, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		window, err := hypr.QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return hypr.ActiveWindow{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	return hypr.ActiveWindow{}, fmt.Errorf("resolve active window: %w", lastErr)
}
