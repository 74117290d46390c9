package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	HotkeyMode   *string `json:"hotkey_mode"`
	LanguageMode *string `json:"language_mode"`

	CleanupProvider        *string `json:"cleanup_provider"`
	LMStudioEnabled        *bool   `json:"lmstudio_enabled"`
	LMStudioAutoStart      *bool   `json:"lmstudio_auto_start"`
	LMStudioStartTimeoutMS *int    `json:"lmstudio_start_timeout_ms"`
	LMStudioBaseURL        *string `json:"lmstudio_base_url"`
	LMStudioModel          *string `json:"lmstudio_model"`
	GroqBaseURL            *string `json:"groq_base_url"`
	GroqModel              *string `json:"groq_model"`
	MaxCleanupTimeoutMS    *int    `json:"max_cleanup_timeout_ms"`

	DuckSystemAudio         *bool `json:"duck_system_audio_while_recording"`
	DuckTargetVolumePercent *int  `json:"duck_target_volume_percent"`

	FloatingIndicatorEnabled     *bool `json:"floating_indicator_enabled"`
	FloatingIndicatorHideDelayMS *int  `json:"floating_indicator_hide_delay_ms"`

	PasteLastShortcutEnabled  *bool `json:"paste_last_shortcut_enabled"`
	PasteFailureKeepDictation *bool `json:"paste_failure_keep_dictation_in_clipboard"`

	Cleanup   *jsoncCleanup   `json:"cleanup"`
	Audio     *jsoncAudio     `json:"audio"`
	Paste     *jsoncPaste     `json:"paste"`
	PasteCmd  *string         `json:"paste_cmd"`
	Clipboard *jsoncClipboard `json:"clipboard"`
	Indicator *jsoncIndicator `json:"indicator"`
	Whisper   *jsoncWhisper   `json:"whisper"`
	History   *jsoncHistory   `json:"history"`
	Metrics   *jsoncMetrics   `json:"metrics"`
	Debug     *jsoncDebug     `json:"debug"`
}

type jsoncCleanup struct {
	LMStudioStartCmd      *string `json:"lmstudio_start_cmd"`
	BreakerMaxFailures    *int    `json:"breaker_max_failures"`
	BreakerResetTimeoutMS *int    `json:"breaker_reset_timeout_ms"`
}

type jsoncAudio struct {
	Input            *string `json:"input"`
	Fallback         *string `json:"fallback"`
	MinRecordingMS   *int    `json:"min_recording_ms"`
	SilenceThreshold *int    `json:"silence_threshold"`
	SilencePaddingMS *int    `json:"silence_padding_ms"`
}

type jsoncPaste struct {
	Method   *string `json:"method"`
	Shortcut *string `json:"shortcut"`
}

type jsoncClipboard struct {
	Backend *string `json:"backend"`
	CopyCmd *string `json:"copy_cmd"`
	ReadCmd *string `json:"read_cmd"`
}

type jsoncIndicator struct {
	Backend         *string `json:"backend"`
	DesktopAppName  *string `json:"desktop_app_name"`
	SoundEnable     *bool   `json:"sound_enable"`
	LevelIntervalMS *int    `json:"level_interval_ms"`
}

type jsoncWhisper struct {
	ModelPath     *string          `json:"model_path"`
	Threads       *int             `json:"threads"`
	PromptPhrases *jsoncStringList `json:"prompt_phrases"`
}

type jsoncHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncMetrics struct {
	Listen *string `json:"listen"`
}

type jsoncDebug struct {
	AudioDump *bool   `json:"audio_dump"`
	LogLevel  *string `json:"log_level"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings := payload.applyTo(&cfg)

	cfg, validatedWarnings := Validate(cfg)
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) []Warning {
	warnings := make([]Warning, 0)

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setCommand := func(key string, dst *CommandConfig, src *string) {
		if src == nil {
			return
		}
		raw := *src
		argv, err := parseArgv(raw)
		if err != nil {
			warnings = append(warnings, invalid(key, "%v", err))
			return
		}
		*dst = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.HotkeyMode != nil {
		cfg.HotkeyMode = HotkeyMode(strings.TrimSpace(*payload.HotkeyMode))
	}
	if payload.LanguageMode != nil {
		cfg.LanguageMode = LanguageMode(strings.TrimSpace(*payload.LanguageMode))
	}
	if payload.CleanupProvider != nil {
		cfg.Cleanup.Provider = CleanupProvider(strings.TrimSpace(*payload.CleanupProvider))
	}

	setBool(&cfg.Cleanup.LMStudioEnabled, payload.LMStudioEnabled)
	setBool(&cfg.Cleanup.LMStudioAutoStart, payload.LMStudioAutoStart)
	setInt(&cfg.Cleanup.LMStudioStartTimeout, payload.LMStudioStartTimeoutMS)
	setString(&cfg.Cleanup.LMStudioBaseURL, payload.LMStudioBaseURL)
	setString(&cfg.Cleanup.LMStudioModel, payload.LMStudioModel)
	setString(&cfg.Cleanup.GroqBaseURL, payload.GroqBaseURL)
	setString(&cfg.Cleanup.GroqModel, payload.GroqModel)
	setInt(&cfg.Cleanup.MaxCleanupTimeoutMS, payload.MaxCleanupTimeoutMS)

	setBool(&cfg.Duck.Enable, payload.DuckSystemAudio)
	setInt(&cfg.Duck.TargetPercent, payload.DuckTargetVolumePercent)

	setBool(&cfg.Indicator.Enable, payload.FloatingIndicatorEnabled)
	setInt(&cfg.Indicator.HideDelayMS, payload.FloatingIndicatorHideDelayMS)

	setBool(&cfg.Paste.LastShortcutEnabled, payload.PasteLastShortcutEnabled)
	setBool(&cfg.Paste.KeepOnFailure, payload.PasteFailureKeepDictation)

	if c := payload.Cleanup; c != nil {
		setCommand("cleanup.lmstudio_start_cmd", &cfg.Cleanup.LMStudioStartCmd, c.LMStudioStartCmd)
		setInt(&cfg.Cleanup.BreakerMaxFailures, c.BreakerMaxFailures)
		setInt(&cfg.Cleanup.BreakerResetTimeoutMS, c.BreakerResetTimeoutMS)
	}

	if a := payload.Audio; a != nil {
		if a.Input != nil {
			cfg.Audio.Input = *a.Input
		}
		if a.Fallback != nil {
			cfg.Audio.Fallback = *a.Fallback
		}
		setInt(&cfg.Audio.MinRecordingMS, a.MinRecordingMS)
		setInt(&cfg.Audio.SilenceThreshold, a.SilenceThreshold)
		setInt(&cfg.Audio.SilencePaddingMS, a.SilencePaddingMS)
	}

	if p := payload.Paste; p != nil {
		setString(&cfg.Paste.Method, p.Method)
		setString(&cfg.Paste.Shortcut, p.Shortcut)
	}
	setCommand("paste_cmd", &cfg.PasteCmd, payload.PasteCmd)

	if c := payload.Clipboard; c != nil {
		setString(&cfg.Clipboard.Backend, c.Backend)
		setCommand("clipboard.copy_cmd", &cfg.Clipboard.Copy, c.CopyCmd)
		setCommand("clipboard.read_cmd", &cfg.Clipboard.Read, c.ReadCmd)
	}

	if i := payload.Indicator; i != nil {
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setInt(&cfg.Indicator.LevelIntervalMS, i.LevelIntervalMS)
	}

	if w := payload.Whisper; w != nil {
		setString(&cfg.Whisper.ModelPath, w.ModelPath)
		setInt(&cfg.Whisper.Threads, w.Threads)
		if w.PromptPhrases != nil {
			cfg.Whisper.PromptPhrases = cfg.Whisper.PromptPhrases[:0]
			for _, phrase := range *w.PromptPhrases {
				phrase = strings.TrimSpace(phrase)
				if phrase == "" {
					continue
				}
				cfg.Whisper.PromptPhrases = append(cfg.Whisper.PromptPhrases, phrase)
			}
		}
	}

	if h := payload.History; h != nil {
		setBool(&cfg.History.Enable, h.Enable)
		setString(&cfg.History.Path, h.Path)
	}

	if m := payload.Metrics; m != nil {
		setString(&cfg.Metrics.Listen, m.Listen)
	}

	if d := payload.Debug; d != nil {
		setBool(&cfg.Debug.EnableAudioDump, d.AudioDump)
		setString(&cfg.Debug.LogLevel, d.LogLevel)
	}

	return warnings
}

// normalizeJSONC turns JSONC into JSON by blanking comments and trailing
// commas in place. Every remaining byte keeps its offset, so decode errors
// map back to the user's line and column.
func normalizeJSONC(content string) (string, error) {
	buf := []byte(content)
	if err := blankComments(buf); err != nil {
		return "", err
	}
	blankTrailingCommas(buf)
	return string(buf), nil
}

func blankComments(buf []byte) error {
	for i := 0; i < len(buf); i++ {
		switch {
		case buf[i] == '"':
			i = skipString(buf, i)
		case bytes.HasPrefix(buf[i:], []byte("//")):
			end := i
			for end < len(buf) && buf[end] != '\n' && buf[end] != '\r' {
				end++
			}
			blank(buf[i:end])
			i = end
		case bytes.HasPrefix(buf[i:], []byte("/*")):
			n := bytes.Index(buf[i+2:], []byte("*/"))
			if n < 0 {
				return errors.New("unterminated block comment in JSONC")
			}
			end := i + 2 + n + 2
			blank(buf[i:end])
			i = end - 1
		}
	}
	return nil
}

func blankTrailingCommas(buf []byte) {
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '"':
			i = skipString(buf, i)
		case ',':
			j := i + 1
			for j < len(buf) && isJSONWhitespace(buf[j]) {
				j++
			}
			if j < len(buf) && (buf[j] == '}' || buf[j] == ']') {
				buf[i] = ' '
			}
		}
	}
}

// skipString returns the index of the quote closing the string opened at i.
func skipString(buf []byte, i int) int {
	for i++; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(buf)
}

// blank overwrites b with spaces, keeping line breaks and tabs.
func blank(b []byte) {
	for i, ch := range b {
		if !isJSONWhitespace(ch) {
			b[i] = ' '
		}
	}
}

func isJSONWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
