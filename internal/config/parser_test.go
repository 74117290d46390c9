package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlatAndNestedKeys(t *testing.T) {
	input := `
{
  // flat options
  "hotkey_mode": "fn_space_hold",
  "language_mode": "hinglish_roman",
  "cleanup_provider": "groq",
  "lmstudio_enabled": false,
  "max_cleanup_timeout_ms": 1500,
  "duck_system_audio_while_recording": false,
  "duck_target_volume_percent": 20,
  "floating_indicator_hide_delay_ms": 2500,
  "paste_failure_keep_dictation_in_clipboard": false,
  "audio": { "input": "Elgato", "min_recording_ms": 300 },
  "whisper": { "prompt_phrases": "Hyprland, SpeakFlow, " },
  "metrics": { "listen": "127.0.0.1:9464" },
  "debug": { "log_level": "DEBUG" },
}
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, HotkeyFnSpaceHold, cfg.HotkeyMode)
	require.Equal(t, LanguageHinglishRoman, cfg.LanguageMode)
	require.Equal(t, ProviderGroq, cfg.Cleanup.Provider)
	require.False(t, cfg.Cleanup.LMStudioEnabled)
	require.Equal(t, 1500, cfg.Cleanup.MaxCleanupTimeoutMS)
	require.False(t, cfg.Duck.Enable)
	require.Equal(t, 20, cfg.Duck.TargetPercent)
	require.Equal(t, 2500, cfg.Indicator.HideDelayMS)
	require.False(t, cfg.Paste.KeepOnFailure)
	require.Equal(t, "Elgato", cfg.Audio.Input)
	require.Equal(t, 300, cfg.Audio.MinRecordingMS)
	require.Equal(t, []string{"Hyprland", "SpeakFlow"}, cfg.Whisper.PromptPhrases)
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
	require.Equal(t, "debug", cfg.Debug.LogLevel)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse(`{"foo": 1}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseLineNumberOnError(t *testing.T) {
	_, _, err := Parse("{\n\n  \"hotkey_mode\": oops\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseTypeMismatchFails(t *testing.T) {
	_, _, err := Parse(`{"duck_target_volume_percent": "loud"}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}

func TestParseCommandArgvQuoted(t *testing.T) {
	cfg, _, err := Parse(`{"paste_cmd": "mycmd --name 'hello world'", "paste": {"method": "command"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "mycmd|--name|hello world", strings.Join(cfg.PasteCmd.Argv, "|"))
	require.Equal(t, "command", cfg.Paste.Method)
}

func TestParseInvalidCommandKeepsDefaultWithWarning(t *testing.T) {
	cfg, warnings, err := Parse(`{"clipboard": {"copy_cmd": "wl-copy \"oops"}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "clipboard.copy_cmd")
	require.Equal(t, Default().Clipboard.Copy, cfg.Clipboard.Copy)
}

func TestParseInvalidValuesFallBackToDefaults(t *testing.T) {
	cfg, warnings, err := Parse(`{
  "hotkey_mode": "caps_lock",
  "duck_target_volume_percent": 150,
  "floating_indicator_hide_delay_ms": 50
}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 3)

	def := Default()
	require.Equal(t, def.HotkeyMode, cfg.HotkeyMode)
	require.Equal(t, def.Duck.TargetPercent, cfg.Duck.TargetPercent)
	require.Equal(t, def.Indicator.HideDelayMS, cfg.Indicator.HideDelayMS)

	var cfgErr *Error
	require.True(t, errors.As(warnings[0].Err, &cfgErr))
	require.Equal(t, "hotkey_mode", cfgErr.Key)
}
