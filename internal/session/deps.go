package session

import (
	"context"
	"log/slog"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/cleanup"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/history"
	"github.com/agarwal-mihir/SpeakFlow/internal/indicator"
	"github.com/agarwal-mihir/SpeakFlow/internal/metrics"
	"github.com/agarwal-mihir/SpeakFlow/internal/output"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcribe"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

// Recording is one in-flight audio capture.
type Recording interface {
	Level() float64
	Stop() audio.Buffer
	Cancel()
	Device() string
}

// Recorder opens a capture for one session.
type Recorder interface {
	Start(ctx context.Context, cfg config.Config) (Recording, error)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, cfg config.Config) (Recording, error)

func (f RecorderFunc) Start(ctx context.Context, cfg config.Config) (Recording, error) {
	return f(ctx, cfg)
}

// Ducker lowers and restores system output volume.
type Ducker interface {
	Engage(ctx context.Context, targetPercent int) error
	Release(ctx context.Context) error
}

// Transcriber turns a finished buffer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, buf audio.Buffer, opts transcribe.Options) (transcribe.Result, error)
}

// Cleaner rewrites a transcript. It never fails.
type Cleaner interface {
	Clean(ctx context.Context, cfg config.CleanupConfig, text string, mode transcript.OutputMode) cleanup.Result
}

// Injector pastes text into the focused application.
type Injector interface {
	Paste(ctx context.Context, text string, policy output.Policy) output.Result
	PasteLast(ctx context.Context, text string) output.Result
}

// Indicator receives state projections in transition order.
type Indicator interface {
	Publish(indicator.State)
}

// History stores terminal sessions.
type History interface {
	Record(ctx context.Context, e history.Entry) error
}

// Deps wires the controller to its collaborators. Nil fields fall back to
// no-ops, except Recorder, Transcriber and Injector which are required for
// dictation to succeed.
type Deps struct {
	Logger      *slog.Logger
	Config      func() config.Config
	Recorder    Recorder
	Ducker      Ducker
	Transcriber Transcriber
	Cleaner     Cleaner
	Injector    func(config.Config) Injector
	Indicator   Indicator
	History     History
	Metrics     *metrics.Metrics
	TargetApp   func(context.Context) string
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Config == nil {
		d.Config = config.Default
	}
	if d.Recorder == nil {
		d.Recorder = RecorderFunc(func(context.Context, config.Config) (Recording, error) {
			return nil, ErrPipelineUnavailable
		})
	}
	if d.Ducker == nil {
		d.Ducker = noopDucker{}
	}
	if d.Transcriber == nil {
		d.Transcriber = unavailableTranscriber{}
	}
	if d.Cleaner == nil {
		d.Cleaner = passthroughCleaner{}
	}
	if d.Injector == nil {
		d.Injector = func(config.Config) Injector { return unavailableInjector{} }
	}
	if d.Indicator == nil {
		d.Indicator = noopIndicator{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop()
	}
	if d.TargetApp == nil {
		d.TargetApp = func(context.Context) string { return "" }
	}
	return d
}

type noopDucker struct{}

func (noopDucker) Engage(context.Context, int) error { return nil }
func (noopDucker) Release(context.Context) error     { return nil }

type noopIndicator struct{}

func (noopIndicator) Publish(indicator.State) {}

type unavailableTranscriber struct{}

func (unavailableTranscriber) Transcribe(context.Context, audio.Buffer, transcribe.Options) (transcribe.Result, error) {
	return transcribe.Result{}, ErrPipelineUnavailable
}

type passthroughCleaner struct{}

func (passthroughCleaner) Clean(_ context.Context, _ config.CleanupConfig, text string, _ transcript.OutputMode) cleanup.Result {
	return cleanup.Result{Text: text, Provider: "none"}
}

type unavailableInjector struct{}

func (unavailableInjector) Paste(context.Context, string, output.Policy) output.Result {
	return output.Result{Status: output.StatusFailed, Err: ErrPipelineUnavailable}
}

func (unavailableInjector) PasteLast(context.Context, string) output.Result {
	return output.Result{Status: output.StatusFailed, Err: ErrPipelineUnavailable}
}
