package indicator

import (
	"context"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/hypr"
)

// view is one rendered frame.
type view struct {
	phase     Phase
	text      string
	timeoutMS int
}

// Backend puts frames on screen.
type Backend interface {
	Show(ctx context.Context, v view) error
	Hide(ctx context.Context) error
	// LiveLevel reports whether the backend can replace a frame in place,
	// which level meters need.
	LiveLevel() bool
}

// NewBackend returns the backend named by indicator.backend.
func NewBackend(cfg config.IndicatorConfig) Backend {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "desktop":
		appName := strings.TrimSpace(cfg.DesktopAppName)
		if appName == "" {
			appName = "speakflow"
		}
		return &desktopBackend{appName: appName}
	case "beeep":
		return beeepBackend{}
	default:
		return hyprBackend{}
	}
}

type hyprBackend struct{}

func (hyprBackend) Show(ctx context.Context, v view) error {
	icon, color := hyprStyle(v.phase)
	// hyprctl notifications stack, so clear the previous frame first.
	_ = hypr.DismissNotify(ctx)
	return hypr.Notify(ctx, icon, v.timeoutMS, color, v.text)
}

func (hyprBackend) Hide(ctx context.Context) error {
	return hypr.DismissNotify(ctx)
}

func (hyprBackend) LiveLevel() bool { return true }

func hyprStyle(phase Phase) (int, string) {
	switch phase {
	case PhaseTranscribing:
		return 1, "rgb(cba6f7)"
	case PhaseSuccess:
		return 5, "rgb(a6e3a1)"
	case PhaseError:
		return 3, "rgb(f38ba8)"
	default:
		return 1, "rgb(89b4fa)"
	}
}

// desktopBackend sends replaceable freedesktop notifications via busctl.
type desktopBackend struct {
	appName string

	mu sync.Mutex
	id uint32
}

func (d *desktopBackend) Show(ctx context.Context, v view) error {
	d.mu.Lock()
	replaceID := d.id
	d.mu.Unlock()

	id, err := desktopNotify(ctx, d.appName, replaceID, v.text, v.timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	return nil
}

func (d *desktopBackend) Hide(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.id = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

func (d *desktopBackend) LiveLevel() bool { return true }

// beeepBackend flashes plain desktop notifications. Frames cannot be
// replaced or hidden, so only phase changes are shown.
type beeepBackend struct{}

func (beeepBackend) Show(_ context.Context, v view) error {
	return beeep.Notify("SpeakFlow", v.text, "")
}

func (beeepBackend) Hide(context.Context) error { return nil }

func (beeepBackend) LiveLevel() bool { return false }
