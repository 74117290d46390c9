package hotkey

import (
	"testing"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/stretchr/testify/require"
)

type edge struct {
	key  string
	down bool
	want Action
}

func feedAll(t *testing.T, l *Listener, edges []edge) {
	t.Helper()
	for i, e := range edges {
		require.Equal(t, e.want, l.Feed(e.key, e.down), "edge %d (%s down=%v)", i, e.key, e.down)
	}
}

func TestFnHoldPressRelease(t *testing.T) {
	l := NewListener(config.HotkeyFnHold, true)
	feedAll(t, l, []edge{
		{KeyFn, true, ActionPress},
		{KeyFn, true, ActionNone}, // key repeat
		{KeySpace, true, ActionNone},
		{KeySpace, false, ActionNone},
		{KeyFn, false, ActionRelease},
		{KeyFn, false, ActionNone},
	})
}

func TestFnSpaceHoldRequiresFn(t *testing.T) {
	l := NewListener(config.HotkeyFnSpaceHold, true)
	feedAll(t, l, []edge{
		{KeySpace, true, ActionNone},
		{KeySpace, false, ActionNone},
		{KeyFn, true, ActionNone},
		{KeySpace, true, ActionPress},
		{KeySpace, true, ActionNone},
		{KeySpace, false, ActionRelease},
		{KeyFn, false, ActionNone},
	})
}

func TestFnSpaceHoldReleasesAfterFnLifted(t *testing.T) {
	l := NewListener(config.HotkeyFnSpaceHold, false)
	feedAll(t, l, []edge{
		{KeyFn, true, ActionNone},
		{KeySpace, true, ActionPress},
		{KeyFn, false, ActionNone},
		{KeySpace, false, ActionRelease},
	})
}

func TestPasteLastChord(t *testing.T) {
	l := NewListener(config.HotkeyFnHold, true)
	feedAll(t, l, []edge{
		{"Super", true, ActionNone},
		{"alt", true, ActionNone},
		{KeyV, true, ActionPasteLast},
		{KeyV, true, ActionNone},
		{KeyV, false, ActionNone},
		{KeyV, true, ActionPasteLast},
	})
}

func TestPasteLastChordRejectsExtraModifiers(t *testing.T) {
	l := NewListener(config.HotkeyFnHold, true)
	feedAll(t, l, []edge{
		{KeySuper, true, ActionNone},
		{KeyAlt, true, ActionNone},
		{KeyShift, true, ActionNone},
		{KeyV, true, ActionNone},
	})
}

func TestPasteLastChordDisabled(t *testing.T) {
	l := NewListener(config.HotkeyFnHold, false)
	feedAll(t, l, []edge{
		{KeySuper, true, ActionNone},
		{KeyAlt, true, ActionNone},
		{KeyV, true, ActionNone},
	})
}

func TestReconfigureResetsHeldKeys(t *testing.T) {
	l := NewListener(config.HotkeyFnHold, true)
	require.Equal(t, ActionPress, l.Feed(KeyFn, true))

	l.Reconfigure(config.HotkeyFnSpaceHold, true)
	require.Equal(t, ActionNone, l.Feed(KeyFn, false))
	require.Equal(t, ActionNone, l.Feed(KeySpace, true))
}

func TestReconfigureSameModeKeepsState(t *testing.T) {
	l := NewListener(config.HotkeyFnHold, true)
	require.Equal(t, ActionPress, l.Feed(KeyFn, true))
	l.Reconfigure(config.HotkeyFnHold, true)
	require.Equal(t, ActionRelease, l.Feed(KeyFn, false))
}

func TestNormalizeKeyAliases(t *testing.T) {
	require.Equal(t, KeySuper, normalizeKey(" META "))
	require.Equal(t, KeyAlt, normalizeKey("mod1"))
	require.Equal(t, KeyCtrl, normalizeKey("Control"))
	require.Equal(t, "f13", normalizeKey("F13"))
}

func TestActionString(t *testing.T) {
	require.Equal(t, "press", ActionPress.String())
	require.Equal(t, "paste_last", ActionPasteLast.String())
	require.Equal(t, "none", Action(42).String())
}
