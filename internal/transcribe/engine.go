// Package transcribe runs local speech-to-text over captured audio buffers.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

// MinSpeechDuration is the shortest buffer worth sending to the model.
const MinSpeechDuration = 100 * time.Millisecond

// Options are the per-session knobs taken from the config snapshot.
type Options struct {
	Language         config.LanguageMode
	Prompt           string
	SilenceThreshold int
}

// OptionsFromConfig builds transcription options from a config snapshot.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Language:         cfg.LanguageMode,
		Prompt:           strings.Join(cfg.Whisper.PromptPhrases, ", "),
		SilenceThreshold: cfg.Audio.SilenceThreshold,
	}
}

// Result is one finished transcription.
type Result struct {
	Text             string
	RawText          string
	DetectedLanguage string
	Confidence       float64
	Duration         time.Duration
	OutputMode       transcript.OutputMode
}

type request struct {
	language string
	prompt   string
}

type recognition struct {
	segments         []string
	detectedLanguage string
	confidence       float64
}

type backend interface {
	recognize(samples []float32, req request) (recognition, error)
	Close() error
}

// Engine transcribes buffers against one loaded model. Decoding contexts
// share the model state, so decodes run one at a time.
type Engine struct {
	backend backend
	logger  *slog.Logger

	decodeMu sync.Mutex

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	closeOnce sync.Once
}

func newEngine(b backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{backend: b, logger: logger}
}

// Close rejects new work, waits for running decodes to leave the model,
// then releases it.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		e.inflight.Wait()
		err = e.backend.Close()
	})
	return err
}

// acquire registers a decode unless the engine is closed.
func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.inflight.Add(1)
	return true
}

// CheckSpeech returns ErrNoSpeech for silent or too-short buffers.
func CheckSpeech(buf audio.Buffer, threshold int) error {
	if buf.Duration() < MinSpeechDuration || buf.Silent(threshold) {
		return ErrNoSpeech
	}
	return nil
}

// Transcribe decodes buf and normalizes the text for the resolved output mode.
// Inference itself cannot be interrupted; when ctx ends first the call returns
// ctx.Err() and the result is discarded. The decode keeps the model open
// until it finishes.
func (e *Engine) Transcribe(ctx context.Context, buf audio.Buffer, opts Options) (Result, error) {
	if err := CheckSpeech(buf, opts.SilenceThreshold); err != nil {
		return Result{}, err
	}
	if !e.acquire() {
		return Result{}, ErrClosed
	}

	started := time.Now()
	req := request{language: whisperLanguage(opts.Language), prompt: opts.Prompt}

	type outcome struct {
		rec recognition
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer e.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		e.decodeMu.Lock()
		defer e.decodeMu.Unlock()
		rec, err := e.backend.recognize(buf.Float32(), req)
		done <- outcome{rec: rec, err: err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out = <-done:
	}
	if out.err != nil {
		return Result{}, &Error{Op: "decode", Err: out.err}
	}

	raw := transcript.Assemble(out.rec.segments)
	if raw == "" {
		return Result{}, ErrNoSpeech
	}

	decision := transcript.Decide(opts.Language, transcript.Analysis{
		RawText:          raw,
		DetectedLanguage: out.rec.detectedLanguage,
		Confidence:       out.rec.confidence,
	})
	text := transcript.Normalize(raw, decision.Mode)
	if text == "" {
		return Result{}, ErrNoSpeech
	}

	result := Result{
		Text:             text,
		RawText:          raw,
		DetectedLanguage: out.rec.detectedLanguage,
		Confidence:       out.rec.confidence,
		Duration:         time.Since(started),
		OutputMode:       decision.Mode,
	}
	e.logger.Debug("transcription complete",
		"detected_language", result.DetectedLanguage,
		"confidence", result.Confidence,
		"output_mode", string(result.OutputMode),
		"mixed_script_ratio", decision.MixedScriptRatio,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// whisperLanguage maps a language mode to the decoder language code.
func whisperLanguage(mode config.LanguageMode) string {
	switch mode {
	case config.LanguageEnglish:
		return "en"
	case config.LanguageHinglishRoman:
		return "hi"
	default:
		return "auto"
	}
}
