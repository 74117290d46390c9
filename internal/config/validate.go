package config

import (
	"strings"
)

// Validate resets every out-of-range value to its default and returns one
// warning per replaced key. It never fails.
func Validate(cfg Config) (Config, []Warning) {
	def := Default()
	warnings := make([]Warning, 0)

	switch cfg.HotkeyMode {
	case HotkeyFnHold, HotkeyFnSpaceHold:
	default:
		warnings = append(warnings, invalid("hotkey_mode", "unsupported value %q", cfg.HotkeyMode))
		cfg.HotkeyMode = def.HotkeyMode
	}

	switch cfg.LanguageMode {
	case LanguageAuto, LanguageEnglish, LanguageHinglishRoman:
	default:
		warnings = append(warnings, invalid("language_mode", "unsupported value %q", cfg.LanguageMode))
		cfg.LanguageMode = def.LanguageMode
	}

	switch cfg.Cleanup.Provider {
	case ProviderLMStudio, ProviderGroq, ProviderDeterministic:
	default:
		warnings = append(warnings, invalid("cleanup_provider", "unsupported value %q", cfg.Cleanup.Provider))
		cfg.Cleanup.Provider = def.Cleanup.Provider
	}

	if cfg.Cleanup.LMStudioStartTimeout <= 0 {
		warnings = append(warnings, invalid("lmstudio_start_timeout_ms", "must be > 0"))
		cfg.Cleanup.LMStudioStartTimeout = def.Cleanup.LMStudioStartTimeout
	}
	if !hasHTTPScheme(cfg.Cleanup.LMStudioBaseURL) {
		warnings = append(warnings, invalid("lmstudio_base_url", "must start with http:// or https://"))
		cfg.Cleanup.LMStudioBaseURL = def.Cleanup.LMStudioBaseURL
	}
	if !hasHTTPScheme(cfg.Cleanup.GroqBaseURL) {
		warnings = append(warnings, invalid("groq_base_url", "must start with http:// or https://"))
		cfg.Cleanup.GroqBaseURL = def.Cleanup.GroqBaseURL
	}
	if cfg.Cleanup.GroqModel == "" {
		warnings = append(warnings, invalid("groq_model", "must not be empty"))
		cfg.Cleanup.GroqModel = def.Cleanup.GroqModel
	}
	if cfg.Cleanup.MaxCleanupTimeoutMS <= 0 {
		warnings = append(warnings, invalid("max_cleanup_timeout_ms", "must be > 0"))
		cfg.Cleanup.MaxCleanupTimeoutMS = def.Cleanup.MaxCleanupTimeoutMS
	}
	if cfg.Cleanup.BreakerMaxFailures <= 0 {
		warnings = append(warnings, invalid("cleanup.breaker_max_failures", "must be > 0"))
		cfg.Cleanup.BreakerMaxFailures = def.Cleanup.BreakerMaxFailures
	}
	if cfg.Cleanup.BreakerResetTimeoutMS <= 0 {
		warnings = append(warnings, invalid("cleanup.breaker_reset_timeout_ms", "must be > 0"))
		cfg.Cleanup.BreakerResetTimeoutMS = def.Cleanup.BreakerResetTimeoutMS
	}
	if cfg.Cleanup.LMStudioAutoStart && len(cfg.Cleanup.LMStudioStartCmd.Argv) == 0 {
		warnings = append(warnings, invalid("cleanup.lmstudio_start_cmd", "must not be empty when lmstudio_auto_start=true"))
		cfg.Cleanup.LMStudioStartCmd = def.Cleanup.LMStudioStartCmd
	}

	if cfg.Duck.TargetPercent < 0 || cfg.Duck.TargetPercent > 100 {
		warnings = append(warnings, invalid("duck_target_volume_percent", "must be within 0..100, got %d", cfg.Duck.TargetPercent))
		cfg.Duck.TargetPercent = def.Duck.TargetPercent
	}

	if cfg.Indicator.HideDelayMS < 200 || cfg.Indicator.HideDelayMS > 10000 {
		warnings = append(warnings, invalid("floating_indicator_hide_delay_ms", "must be within 200..10000, got %d", cfg.Indicator.HideDelayMS))
		cfg.Indicator.HideDelayMS = def.Indicator.HideDelayMS
	}
	cfg.Indicator.Backend = strings.ToLower(cfg.Indicator.Backend)
	switch cfg.Indicator.Backend {
	case "hypr", "desktop", "beeep":
	default:
		warnings = append(warnings, invalid("indicator.backend", "must be one of: hypr, desktop, beeep"))
		cfg.Indicator.Backend = def.Indicator.Backend
	}
	if cfg.Indicator.Backend == "desktop" && cfg.Indicator.DesktopAppName == "" {
		warnings = append(warnings, invalid("indicator.desktop_app_name", "must not be empty when indicator.backend=desktop"))
		cfg.Indicator.DesktopAppName = def.Indicator.DesktopAppName
	}
	if cfg.Indicator.LevelIntervalMS < 10 {
		warnings = append(warnings, invalid("indicator.level_interval_ms", "must be >= 10"))
		cfg.Indicator.LevelIntervalMS = def.Indicator.LevelIntervalMS
	}

	cfg.Paste.Method = strings.ToLower(cfg.Paste.Method)
	switch cfg.Paste.Method {
	case "hypr", "uinput":
	case "command":
		if len(cfg.PasteCmd.Argv) == 0 {
			warnings = append(warnings, invalid("paste.method", "command requires paste_cmd"))
			cfg.Paste.Method = def.Paste.Method
		}
	default:
		warnings = append(warnings, invalid("paste.method", "must be one of: hypr, uinput, command"))
		cfg.Paste.Method = def.Paste.Method
	}
	if cfg.Paste.Method == "hypr" && cfg.Paste.Shortcut == "" {
		warnings = append(warnings, invalid("paste.shortcut", "must not be empty when paste.method=hypr"))
		cfg.Paste.Shortcut = def.Paste.Shortcut
	}

	cfg.Clipboard.Backend = strings.ToLower(cfg.Clipboard.Backend)
	switch cfg.Clipboard.Backend {
	case "command", "system":
	default:
		warnings = append(warnings, invalid("clipboard.backend", "must be one of: command, system"))
		cfg.Clipboard.Backend = def.Clipboard.Backend
	}
	if cfg.Clipboard.Backend == "command" {
		if len(cfg.Clipboard.Copy.Argv) == 0 {
			warnings = append(warnings, invalid("clipboard.copy_cmd", "must not be empty"))
			cfg.Clipboard.Copy = def.Clipboard.Copy
		}
		if len(cfg.Clipboard.Read.Argv) == 0 {
			warnings = append(warnings, invalid("clipboard.read_cmd", "must not be empty"))
			cfg.Clipboard.Read = def.Clipboard.Read
		}
	}

	if cfg.Audio.MinRecordingMS < 0 {
		warnings = append(warnings, invalid("audio.min_recording_ms", "must be >= 0"))
		cfg.Audio.MinRecordingMS = def.Audio.MinRecordingMS
	}
	if cfg.Audio.SilenceThreshold < 0 || cfg.Audio.SilenceThreshold > 32767 {
		warnings = append(warnings, invalid("audio.silence_threshold", "must be within 0..32767"))
		cfg.Audio.SilenceThreshold = def.Audio.SilenceThreshold
	}
	if cfg.Audio.SilencePaddingMS < 0 {
		warnings = append(warnings, invalid("audio.silence_padding_ms", "must be >= 0"))
		cfg.Audio.SilencePaddingMS = def.Audio.SilencePaddingMS
	}

	if cfg.Whisper.ModelPath == "" {
		warnings = append(warnings, invalid("whisper.model_path", "must not be empty"))
		cfg.Whisper.ModelPath = def.Whisper.ModelPath
	}
	if cfg.Whisper.Threads <= 0 {
		warnings = append(warnings, invalid("whisper.threads", "must be > 0"))
		cfg.Whisper.Threads = def.Whisper.Threads
	}

	cfg.Debug.LogLevel = strings.ToLower(cfg.Debug.LogLevel)
	switch cfg.Debug.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, invalid("debug.log_level", "must be one of: debug, info, warn, error"))
		cfg.Debug.LogLevel = def.Debug.LogLevel
	}

	return cfg, warnings
}

func hasHTTPScheme(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
