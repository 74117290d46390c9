// Package config resolves, parses, validates, and defaults speakflow configuration.
package config

// HotkeyMode selects how raw key edges map to press/release.
type HotkeyMode string

const (
	HotkeyFnHold      HotkeyMode = "fn_hold"
	HotkeyFnSpaceHold HotkeyMode = "fn_space_hold"
)

// LanguageMode selects transcription language handling.
type LanguageMode string

const (
	LanguageAuto          LanguageMode = "auto"
	LanguageEnglish       LanguageMode = "english"
	LanguageHinglishRoman LanguageMode = "hinglish_roman"
)

// CleanupProvider selects the transcript rewrite backend.
type CleanupProvider string

const (
	ProviderLMStudio      CleanupProvider = "lmstudio"
	ProviderGroq          CleanupProvider = "groq"
	ProviderDeterministic CleanupProvider = "deterministic"
)

// Config is the fully materialized runtime configuration. Values are copied
// into each session at press time and never mutated afterwards.
type Config struct {
	HotkeyMode   HotkeyMode
	LanguageMode LanguageMode
	Cleanup      CleanupConfig
	Duck         DuckConfig
	Indicator    IndicatorConfig
	Paste        PasteConfig
	PasteCmd     CommandConfig
	Clipboard    ClipboardConfig
	Audio        AudioConfig
	Whisper      WhisperConfig
	History      HistoryConfig
	Metrics      MetricsConfig
	Debug        DebugConfig
}

// CleanupConfig controls the optional transcript rewrite stage.
type CleanupConfig struct {
	Provider              CleanupProvider
	LMStudioEnabled       bool
	LMStudioAutoStart     bool
	LMStudioStartTimeout  int
	LMStudioBaseURL       string
	LMStudioModel         string
	LMStudioStartCmd      CommandConfig
	GroqBaseURL           string
	GroqModel             string
	MaxCleanupTimeoutMS   int
	BreakerMaxFailures    int
	BreakerResetTimeoutMS int
}

// DuckConfig controls system output volume reduction while recording.
type DuckConfig struct {
	Enable        bool
	TargetPercent int
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable          bool
	HideDelayMS     int
	Backend         string
	DesktopAppName  string
	SoundEnable     bool
	LevelIntervalMS int
}

// PasteConfig controls paste dispatch and clipboard retention.
type PasteConfig struct {
	Method              string
	Shortcut            string
	LastShortcutEnabled bool
	KeepOnFailure       bool
}

// ClipboardConfig selects how the clipboard is read and written.
type ClipboardConfig struct {
	Backend string
	Copy    CommandConfig
	Read    CommandConfig
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// AudioConfig controls input-source selection and capture post-processing.
type AudioConfig struct {
	Input            string
	Fallback         string
	MinRecordingMS   int
	SilenceThreshold int
	SilencePaddingMS int
}

// WhisperConfig controls the local speech-to-text model.
type WhisperConfig struct {
	ModelPath     string
	Threads       int
	PromptPhrases []string
}

// HistoryConfig controls the session outcome store.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Listen string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	LogLevel        string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
	Err     error
}
