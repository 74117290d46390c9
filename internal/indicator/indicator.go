// Package indicator projects dictation state onto a notification backend and
// plays audio cues. It holds no session state of its own: every frame comes
// from a State published by the controller.
package indicator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

const (
	dispatchTimeout  = 400 * time.Millisecond
	persistTimeoutMS = 300000
)

// Indicator renders published states in order on a single goroutine.
type Indicator struct {
	cfg      config.IndicatorConfig
	backend  Backend
	messages messages
	logger   *slog.Logger
	playCue  func(context.Context, cueKind) error

	mu      sync.Mutex
	queue   []update
	wake    chan struct{}
	current State

	soundMu sync.Mutex

	// render goroutine only
	shown     string
	lastPhase Phase
	hideTimer *time.Timer
	hideC     <-chan time.Time
}

type update struct {
	state State
	force bool
}

// Option configures an Indicator.
type Option func(*Indicator)

// WithBackend overrides the configured backend.
func WithBackend(b Backend) Option {
	return func(i *Indicator) {
		i.backend = b
	}
}

// New builds an indicator from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger, opts ...Option) *Indicator {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Indicator{
		cfg:       cfg,
		backend:   NewBackend(cfg),
		messages:  indicatorMessagesFromEnv(),
		logger:    logger,
		playCue:   emitCue,
		wake:      make(chan struct{}, 1),
		current:   State{Phase: PhaseIdle},
		lastPhase: PhaseIdle,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Publish enqueues s without blocking. Consecutive recording frames coalesce
// so only the newest level is drawn; phase changes are always kept.
func (i *Indicator) Publish(s State) {
	i.enqueue(update{state: s})
}

// Sync redraws s even if it matches what is on screen. Syncing the idle
// phase always calls the backend's Hide.
func (i *Indicator) Sync(s State) {
	i.enqueue(update{state: s, force: true})
}

// Current returns the most recently published state.
func (i *Indicator) Current() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

func (i *Indicator) enqueue(u update) {
	i.mu.Lock()
	i.current = u.state
	if n := len(i.queue); n > 0 && !u.force {
		last := &i.queue[n-1]
		if last.state.Phase == PhaseRecording && u.state.Phase == PhaseRecording && !last.force {
			last.state = u.state
			i.mu.Unlock()
			i.signal()
			return
		}
	}
	i.queue = append(i.queue, u)
	i.mu.Unlock()
	i.signal()
}

func (i *Indicator) signal() {
	select {
	case i.wake <- struct{}{}:
	default:
	}
}

// Run drains published states until ctx is done, then hides the indicator.
func (i *Indicator) Run(ctx context.Context) error {
	defer func() {
		if i.hideTimer != nil {
			i.hideTimer.Stop()
		}
		i.hide(context.WithoutCancel(ctx))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-i.wake:
			for _, u := range i.drain() {
				i.render(ctx, u)
			}
		case <-i.hideC:
			i.hideC = nil
			i.hideTimer = nil
			i.hide(ctx)
		}
	}
}

func (i *Indicator) drain() []update {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.queue
	i.queue = nil
	return out
}

func (i *Indicator) render(ctx context.Context, u update) {
	s := u.state
	prev := i.lastPhase
	i.lastPhase = s.Phase
	if s.Phase != prev {
		i.cueFor(prev, s.Phase)
	}

	if s.Phase == PhaseIdle {
		switch {
		case u.force:
			i.cancelHide()
			i.shown = ""
			if i.cfg.Enable {
				i.dispatch(ctx, i.backend.Hide)
			}
		case i.hideC == nil:
			// A pending flash hides on its own timer.
			i.hide(ctx)
		}
		return
	}
	i.cancelHide()

	if !i.cfg.Enable {
		return
	}
	v := i.viewFor(s)
	// A repeated flash redraws so the backend timeout restarts with ours.
	if v.text != i.shown || u.force || s.Flash() {
		i.dispatch(ctx, func(ctx context.Context) error {
			return i.backend.Show(ctx, v)
		})
		i.shown = v.text
	}

	if s.Flash() {
		i.hideTimer = time.NewTimer(i.hideDelay())
		i.hideC = i.hideTimer.C
	}
}

func (i *Indicator) viewFor(s State) view {
	v := view{phase: s.Phase, timeoutMS: persistTimeoutMS}
	switch s.Phase {
	case PhaseRecording:
		v.text = i.messages.recording
		if i.backend.LiveLevel() {
			v.text += " " + meter(s.Level)
		}
	case PhaseTranscribing:
		v.text = i.messages.processing
	case PhaseSuccess:
		v.text = i.messages.success
		v.timeoutMS = i.cfg.HideDelayMS
	case PhaseError:
		v.text = i.messages.errorText
		v.timeoutMS = i.cfg.HideDelayMS
	}
	if s.Message != "" && s.Phase != PhaseRecording {
		v.text = s.Message
	}
	return v
}

func (i *Indicator) cueFor(prev Phase, next Phase) {
	switch {
	case next == PhaseRecording:
		i.cue(cueStart)
	case prev == PhaseRecording && next == PhaseTranscribing:
		i.cue(cueStop)
	case prev == PhaseRecording && next == PhaseIdle:
		i.cue(cueCancel)
	case next == PhaseSuccess:
		i.cue(cueComplete)
	case next == PhaseError:
		i.cue(cueError)
	}
}

func (i *Indicator) hide(ctx context.Context) {
	if i.shown == "" {
		return
	}
	i.shown = ""
	if !i.cfg.Enable {
		return
	}
	i.dispatch(ctx, i.backend.Hide)
}

func (i *Indicator) cancelHide() {
	if i.hideTimer != nil {
		i.hideTimer.Stop()
		i.hideTimer = nil
		i.hideC = nil
	}
}

func (i *Indicator) hideDelay() time.Duration {
	if i.cfg.HideDelayMS <= 0 {
		return time.Second
	}
	return time.Duration(i.cfg.HideDelayMS) * time.Millisecond
}

// dispatch runs a backend call with a bounded timeout.
func (i *Indicator) dispatch(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		i.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}

// cue plays asynchronously; cues never overlap.
func (i *Indicator) cue(kind cueKind) {
	if !i.cfg.SoundEnable {
		return
	}
	go func() {
		i.soundMu.Lock()
		defer i.soundMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		if err := i.playCue(ctx, kind); err != nil {
			i.logger.Debug("indicator audio cue failed", "error", err.Error())
		}
	}()
}
