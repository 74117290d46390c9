package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	copyCmd := "wl-copy"
	readCmd := "wl-paste --no-newline"
	lmstudioStart := "lms server start"

	return Config{
		HotkeyMode:   HotkeyFnHold,
		LanguageMode: LanguageAuto,
		Cleanup: CleanupConfig{
			Provider:              ProviderLMStudio,
			LMStudioEnabled:       true,
			LMStudioAutoStart:     true,
			LMStudioStartTimeout:  8000,
			LMStudioBaseURL:       "http://127.0.0.1:1234/v1",
			LMStudioStartCmd:      CommandConfig{Raw: lmstudioStart, Argv: mustParseArgv(lmstudioStart)},
			GroqBaseURL:           "https://api.groq.com/openai/v1",
			GroqModel:             "meta-llama/llama-4-maverick-17b-128e-instruct",
			MaxCleanupTimeoutMS:   1000,
			BreakerMaxFailures:    3,
			BreakerResetTimeoutMS: 30000,
		},
		Duck: DuckConfig{Enable: true, TargetPercent: 8},
		Indicator: IndicatorConfig{
			Enable:          true,
			HideDelayMS:     1000,
			Backend:         "hypr",
			DesktopAppName:  "speakflow",
			SoundEnable:     true,
			LevelIntervalMS: 50,
		},
		Paste: PasteConfig{
			Method:              "hypr",
			Shortcut:            "CTRL,V",
			LastShortcutEnabled: true,
			KeepOnFailure:       true,
		},
		Clipboard: ClipboardConfig{
			Backend: "command",
			Copy:    CommandConfig{Raw: copyCmd, Argv: mustParseArgv(copyCmd)},
			Read:    CommandConfig{Raw: readCmd, Argv: mustParseArgv(readCmd)},
		},
		Audio: AudioConfig{
			Input:            "default",
			Fallback:         "default",
			MinRecordingMS:   250,
			SilenceThreshold: 450,
			SilencePaddingMS: 120,
		},
		Whisper: WhisperConfig{
			ModelPath: "~/.local/share/speakflow/models/ggml-large-v3.bin",
			Threads:   4,
		},
		History: HistoryConfig{Enable: true},
		Debug:   DebugConfig{LogLevel: "info"},
	}
}
