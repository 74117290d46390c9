// Package hotkey turns raw key edges into dictation press/release and
// paste-last actions.
//
// Wayland compositors do not expose a global key tap, so edges arrive from
// compositor bindings (`bind`/`bindr` running `speakflow key fn down`).
package hotkey

import (
	"strings"
	"sync"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

// Action is what one key edge asks the controller to do.
type Action int

const (
	ActionNone Action = iota
	ActionPress
	ActionRelease
	ActionPasteLast
)

func (a Action) String() string {
	switch a {
	case ActionPress:
		return "press"
	case ActionRelease:
		return "release"
	case ActionPasteLast:
		return "paste_last"
	default:
		return "none"
	}
}

// Key names accepted by Feed.
const (
	KeyFn    = "fn"
	KeySpace = "space"
	KeySuper = "super"
	KeyAlt   = "alt"
	KeyCtrl  = "ctrl"
	KeyShift = "shift"
	KeyV     = "v"
)

var modifiers = []string{KeyFn, KeySuper, KeyAlt, KeyCtrl, KeyShift}

// Listener tracks held keys and the active hotkey mode. Safe for concurrent
// use; edges are applied in call order.
type Listener struct {
	mu        sync.Mutex
	mode      config.HotkeyMode
	pasteLast bool
	held      map[string]bool
	fnDown    bool
	comboDown bool
}

// NewListener returns a listener for mode. pasteLast enables the super+alt+v
// chord.
func NewListener(mode config.HotkeyMode, pasteLast bool) *Listener {
	return &Listener{
		mode:      mode,
		pasteLast: pasteLast,
		held:      make(map[string]bool),
	}
}

// Reconfigure switches mode and forgets any held keys.
func (l *Listener) Reconfigure(mode config.HotkeyMode, pasteLast bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == mode && l.pasteLast == pasteLast {
		return
	}
	l.mode = mode
	l.pasteLast = pasteLast
	l.held = make(map[string]bool)
	l.fnDown = false
	l.comboDown = false
}

// Feed applies one edge and returns the resulting action.
func (l *Listener) Feed(key string, down bool) Action {
	key = normalizeKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	wasHeld := l.held[key]
	if down {
		l.held[key] = true
	} else {
		delete(l.held, key)
	}

	if down && !wasHeld && key == KeyV && l.pasteLast && l.chordHeld() {
		return ActionPasteLast
	}

	switch l.mode {
	case config.HotkeyFnSpaceHold:
		return l.fnSpace(key, down)
	default:
		return l.fnHold(key, down)
	}
}

func (l *Listener) fnHold(key string, down bool) Action {
	if key != KeyFn {
		return ActionNone
	}
	if down && !l.fnDown {
		l.fnDown = true
		return ActionPress
	}
	if !down && l.fnDown {
		l.fnDown = false
		return ActionRelease
	}
	return ActionNone
}

func (l *Listener) fnSpace(key string, down bool) Action {
	if key != KeySpace {
		return ActionNone
	}
	if down && l.held[KeyFn] {
		if l.comboDown {
			return ActionNone
		}
		l.comboDown = true
		return ActionPress
	}
	if !down && l.comboDown {
		l.comboDown = false
		return ActionRelease
	}
	return ActionNone
}

// chordHeld reports whether exactly super and alt are the held modifiers.
func (l *Listener) chordHeld() bool {
	for _, m := range modifiers {
		want := m == KeySuper || m == KeyAlt
		if l.held[m] != want {
			return false
		}
	}
	return true
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "meta", "mod4", "win", "cmd":
		return KeySuper
	case "option", "mod1":
		return KeyAlt
	case "control":
		return KeyCtrl
	default:
		return key
	}
}
