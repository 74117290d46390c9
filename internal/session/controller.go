package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/cleanup"
	"github.com/agarwal-mihir/SpeakFlow/internal/fsm"
	"github.com/agarwal-mihir/SpeakFlow/internal/hotkey"
	"github.com/agarwal-mihir/SpeakFlow/internal/indicator"
	"github.com/agarwal-mihir/SpeakFlow/internal/output"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcribe"
)

const (
	queueSize            = 64
	defaultLevelInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

// EventKind names an input accepted by Submit.
type EventKind int

const (
	EventPress EventKind = iota + 1
	EventRelease
	EventToggle
	EventCancel
	EventPasteLast

	eventRecordingStarted
	eventRecordingFailed
	eventTranscribed
	eventCleaned
	eventPasted
	eventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventToggle:
		return "toggle"
	case EventCancel:
		return "cancel"
	case EventPasteLast:
		return "paste_last"
	case eventRecordingStarted:
		return "recording_started"
	case eventRecordingFailed:
		return "recording_failed"
	case eventTranscribed:
		return "transcribed"
	case eventCleaned:
		return "cleaned"
	case eventPasted:
		return "pasted"
	case eventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one item on the controller queue. Callers outside the package set
// only Kind; workers attach their results through the unexported fields.
type Event struct {
	Kind EventKind

	reply         chan error
	session       *Session
	recording     Recording
	transcription transcribe.Result
	cleaned       cleanup.Result
	paste         output.Result
	latency       time.Duration
	err           error
}

// Controller serializes every session transition through one event loop.
type Controller struct {
	deps   Deps
	events chan Event
	keys   *hotkey.Listener
	now    func() time.Time

	mu       sync.RWMutex
	state    fsm.State
	shown    indicator.State
	lastText string
	level    float64

	// duckLease has one slot. A session holds it from before Engage until its
	// Release returns, so a new session cannot duck until the previous
	// session has restored the volume.
	duckLease chan struct{}

	// Owned by the Run goroutine.
	runCtx  context.Context
	active  *Session
	ticker  *time.Ticker
	workers sync.WaitGroup
}

// NewController builds a controller. Call Run to start processing events.
func NewController(deps Deps) *Controller {
	deps = deps.withDefaults()
	cfg := deps.Config()
	return &Controller{
		deps:   deps,
		events: make(chan Event, queueSize),
		keys:   hotkey.NewListener(cfg.HotkeyMode, cfg.Paste.LastShortcutEnabled),
		now:    time.Now,
		state:  fsm.StateIdle,
		shown:  indicator.State{Phase: indicator.PhaseIdle},
		runCtx: context.Background(),

		duckLease: make(chan struct{}, 1),
	}
}

// State returns the current state machine state.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IndicatorState returns the most recent projection sent to the indicator.
func (c *Controller) IndicatorState() indicator.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shown
}

// LastText returns the most recent final transcript, kept for paste-last.
func (c *Controller) LastText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastText
}

// Level returns the last sampled input level.
func (c *Controller) Level() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// Submit enqueues ev without blocking. It returns false when the queue is
// full.
func (c *Controller) Submit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// Run processes events until ctx is done. On exit any active session is
// aborted: capture is cancelled and the ducker released.
func (c *Controller) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	defer func() {
		cancel()
		c.workers.Wait()
		c.abort()
	}()

	for {
		var tick <-chan time.Time
		if c.ticker != nil {
			tick = c.ticker.C
		}

		select {
		case <-runCtx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ev)
		case <-tick:
			c.sampleLevel()
		}
	}
}

func (c *Controller) handle(ev Event) {
	switch ev.Kind {
	case EventPress:
		c.reply(ev, c.press())
	case EventRelease:
		c.reply(ev, c.release())
	case EventToggle:
		if c.State() == fsm.StateRecording {
			c.reply(ev, c.release())
		} else {
			c.reply(ev, c.press())
		}
	case EventCancel:
		c.reply(ev, c.cancel())
	case EventPasteLast:
		c.reply(ev, c.pasteLast())
	case eventRecordingStarted:
		c.recordingStarted(ev)
	case eventRecordingFailed, eventFailed:
		if ev.session != c.active {
			return
		}
		c.fail(ev.session, ev.err)
	case eventTranscribed:
		c.transcribed(ev)
	case eventCleaned:
		c.cleanedText(ev)
	case eventPasted:
		c.pasted(ev)
	default:
		c.reply(ev, errors.New("unknown event"))
	}
}

func (c *Controller) reply(ev Event, err error) {
	if ev.reply == nil {
		return
	}
	select {
	case ev.reply <- err:
	default:
	}
}

func (c *Controller) press() error {
	if c.active != nil || fsm.Busy(c.State()) {
		return ErrSessionBusy
	}
	if err := c.transition(fsm.EventPress); err != nil {
		return err
	}

	cfg := c.deps.Config()
	s := &Session{ID: uuid.NewString(), Config: cfg, StartedAt: c.now()}
	c.active = s
	c.setLevel(0)
	c.publish(indicator.State{Phase: indicator.PhaseRecording})

	c.goWorker(func(ctx context.Context) {
		s.TargetApp = c.deps.TargetApp(ctx)
		rec, err := c.deps.Recorder.Start(ctx, cfg)
		if err != nil {
			c.post(Event{Kind: eventRecordingFailed, session: s, err: err})
			return
		}
		c.engageDucker(ctx, s)
		if !c.post(Event{Kind: eventRecordingStarted, session: s, recording: rec}) {
			rec.Cancel()
			c.releaseDucker(ctx, s)
		}
	})
	return nil
}

func (c *Controller) recordingStarted(ev Event) {
	s := ev.session
	if s != c.active || c.State() != fsm.StateRecording {
		ev.recording.Cancel()
		c.goWorker(func(ctx context.Context) { c.releaseDucker(ctx, s) })
		return
	}

	s.recording = ev.recording
	s.Device = ev.recording.Device()
	switch {
	case s.cancelPending:
		c.cancelRecording(s)
	case s.releasePending:
		c.stopRecording(s)
	default:
		c.startTicker(s)
	}
}

func (c *Controller) release() error {
	s := c.active
	if s == nil || c.State() != fsm.StateRecording {
		return invalidRequest("release", c.State())
	}
	s.releasedAt = c.now()
	if s.recording == nil {
		s.releasePending = true
		return nil
	}
	c.stopRecording(s)
	return nil
}

func (c *Controller) cancel() error {
	s := c.active
	if s == nil || c.State() != fsm.StateRecording {
		return invalidRequest("cancel", c.State())
	}
	if s.recording == nil {
		s.cancelPending = true
		return nil
	}
	c.cancelRecording(s)
	return nil
}

// stopRecording ends capture and hands the buffer to transcription, or
// cancels when the hold was shorter than the configured minimum.
func (c *Controller) stopRecording(s *Session) {
	c.stopTicker()
	if s.releasedAt.IsZero() {
		s.releasedAt = c.now()
	}
	s.CaptureLatency = s.releasedAt.Sub(s.StartedAt)
	minHold := time.Duration(s.Config.Audio.MinRecordingMS) * time.Millisecond
	if s.CaptureLatency < minHold {
		c.deps.Logger.Debug("hold shorter than minimum, cancelling",
			"session", s.ID,
			"held_ms", s.CaptureLatency.Milliseconds(),
			"min_ms", minHold.Milliseconds(),
		)
		c.cancelRecording(s)
		return
	}

	if err := c.transition(fsm.EventRelease); err != nil {
		c.fail(s, err)
		return
	}
	c.publish(indicator.State{Phase: indicator.PhaseTranscribing})

	rec := s.recording
	s.captureStopped = true
	opts := transcribe.OptionsFromConfig(s.Config)
	c.goWorker(func(ctx context.Context) {
		buf := rec.Stop()
		c.releaseDucker(ctx, s)

		started := time.Now()
		result, err := c.deps.Transcriber.Transcribe(ctx, buf, opts)
		latency := time.Since(started)
		if err != nil {
			c.post(Event{Kind: eventFailed, session: s, err: err, latency: latency})
			return
		}
		c.post(Event{Kind: eventTranscribed, session: s, transcription: result, latency: latency})
	})
}

func (c *Controller) cancelRecording(s *Session) {
	c.stopTicker()
	rec := s.recording
	s.captureStopped = true
	_ = c.transition(fsm.EventCancel)
	c.publish(indicator.State{Phase: indicator.PhaseIdle})

	c.goWorker(func(ctx context.Context) {
		rec.Cancel()
		c.releaseDucker(ctx, s)
	})

	s.Outcome = OutcomeCancelled
	c.finish(s)
}

func (c *Controller) transcribed(ev Event) {
	s := ev.session
	if s != c.active {
		return
	}
	result := ev.transcription
	s.TranscribeLatency = ev.latency
	s.RawText = result.RawText
	s.DetectedLanguage = result.DetectedLanguage
	s.Confidence = result.Confidence
	s.OutputMode = result.OutputMode

	if err := c.transition(fsm.EventTranscribed); err != nil {
		c.fail(s, err)
		return
	}

	text := result.Text
	c.goWorker(func(ctx context.Context) {
		res := c.deps.Cleaner.Clean(ctx, s.Config.Cleanup, text, result.OutputMode)
		c.post(Event{Kind: eventCleaned, session: s, cleaned: res})
	})
}

func (c *Controller) cleanedText(ev Event) {
	s := ev.session
	if s != c.active {
		return
	}
	res := ev.cleaned
	s.CleanupLatency = res.Latency
	s.CleanupProvider = res.Provider
	if res.Applied {
		s.CleanedText = res.Text
	}
	s.FinalText = res.Text
	c.deps.Metrics.CountCleanup(c.runCtx, res.Provider, res.Applied)
	if res.Err != nil {
		c.deps.Logger.Info("cleanup skipped", "session", s.ID, "provider", res.Provider, "error", res.Err.Error())
	}

	c.setLastText(s.FinalText)
	if err := c.transition(fsm.EventCleaned); err != nil {
		c.fail(s, err)
		return
	}

	text := s.FinalText
	policy := output.Policy{KeepOnFailure: s.Config.Paste.KeepOnFailure}
	injector := c.deps.Injector(s.Config)
	c.goWorker(func(ctx context.Context) {
		started := time.Now()
		res := injector.Paste(ctx, text, policy)
		c.post(Event{Kind: eventPasted, session: s, paste: res, latency: time.Since(started)})
	})
}

func (c *Controller) pasteLast() error {
	if c.active != nil || fsm.Busy(c.State()) {
		return ErrSessionBusy
	}
	text := c.LastText()
	if text == "" {
		return ErrNoLastDictation
	}
	if err := c.transition(fsm.EventPasteLast); err != nil {
		return err
	}

	cfg := c.deps.Config()
	s := &Session{
		ID:        uuid.NewString(),
		Config:    cfg,
		StartedAt: c.now(),
		FinalText: text,
		pasteLast: true,
	}
	c.active = s

	injector := c.deps.Injector(cfg)
	c.goWorker(func(ctx context.Context) {
		started := time.Now()
		res := injector.PasteLast(ctx, text)
		c.post(Event{Kind: eventPasted, session: s, paste: res, latency: time.Since(started)})
	})
	return nil
}

func (c *Controller) pasted(ev Event) {
	s := ev.session
	if s != c.active {
		return
	}
	s.PasteLatency = ev.latency
	s.PasteAttempts = ev.paste.Attempts
	c.deps.Metrics.CountPaste(c.runCtx, s.Config.Paste.Method, string(ev.paste.Status))

	if ev.paste.Status != output.StatusSuccess {
		err := ev.paste.Err
		if err == nil {
			err = errors.New("paste failed")
		}
		c.fail(s, err)
		return
	}

	if err := c.transition(fsm.EventPasted); err != nil {
		c.fail(s, err)
		return
	}
	c.publish(indicator.State{Phase: indicator.PhaseSuccess})
	s.Outcome = OutcomeSuccess
	c.finish(s)
	_ = c.transition(fsm.EventReset)
}

// fail moves the session to error, flashes the reason, and returns to idle.
func (c *Controller) fail(s *Session, err error) {
	c.stopTicker()
	_ = c.transition(fsm.EventFail)
	c.publish(indicator.State{Phase: indicator.PhaseError, Message: failureMessage(err)})

	if s.recording != nil && !s.captureStopped {
		rec := s.recording
		s.captureStopped = true
		c.goWorker(func(ctx context.Context) {
			rec.Cancel()
			c.releaseDucker(ctx, s)
		})
	}

	s.Outcome = OutcomeError
	s.Err = err
	c.finish(s)
	_ = c.transition(fsm.EventReset)
}

// finish records a terminal session and clears it from the controller.
func (c *Controller) finish(s *Session) {
	s.EndedAt = c.now()
	if c.active == s {
		c.active = nil
	}

	c.observe(s)
	logSessionResult(c.deps.Logger, s)

	if c.deps.History == nil || s.pasteLast || s.Outcome == OutcomeCancelled || !s.Config.History.Enable {
		return
	}
	entry := historyEntry(s)
	c.goWorker(func(ctx context.Context) {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := c.deps.History.Record(writeCtx, entry); err != nil {
			c.deps.Logger.Warn("record history failed", "session", entry.SessionID, "error", err.Error())
		}
	})
}

// abort tears down whatever session is still active after the loop exits.
func (c *Controller) abort() {
	c.stopTicker()
	c.drain()

	s := c.active
	if s == nil {
		return
	}
	if s.recording != nil && !s.captureStopped {
		s.captureStopped = true
		s.recording.Cancel()
		c.releaseDucker(context.Background(), s)
	}

	s.Outcome = OutcomeCancelled
	s.Err = context.Canceled
	s.EndedAt = c.now()
	c.active = nil
	c.observe(s)
	logSessionResult(c.deps.Logger, s)

	c.setState(fsm.StateIdle)
	c.publish(indicator.State{Phase: indicator.PhaseIdle})
}

// drain empties the queue after shutdown so captures that started too late
// to be handled are still stopped.
func (c *Controller) drain() {
	for {
		select {
		case ev := <-c.events:
			c.reply(ev, context.Canceled)
			if ev.Kind != eventRecordingStarted {
				continue
			}
			if ev.session == c.active && ev.session.recording == nil {
				ev.session.recording = ev.recording
				continue
			}
			ev.recording.Cancel()
			c.releaseDucker(context.Background(), ev.session)
		default:
			return
		}
	}
}

// engageDucker takes the duck lease, waiting for the previous session's
// release, then lowers the volume.
func (c *Controller) engageDucker(ctx context.Context, s *Session) {
	if !s.Config.Duck.Enable {
		return
	}
	select {
	case c.duckLease <- struct{}{}:
	case <-ctx.Done():
		return
	}
	s.duckHeld = true
	if err := c.deps.Ducker.Engage(ctx, s.Config.Duck.TargetPercent); err != nil {
		c.deps.Logger.Warn("duck system audio failed", "session", s.ID, "error", err.Error())
		c.deps.Metrics.CountDuckFailure(ctx, "engage")
	}
}

// releaseDucker restores the volume and frees the lease if s holds it.
func (c *Controller) releaseDucker(ctx context.Context, s *Session) {
	if !s.duckHeld {
		return
	}
	s.duckHeld = false
	defer func() { <-c.duckLease }()

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := c.deps.Ducker.Release(releaseCtx); err != nil {
		c.deps.Logger.Warn("restore system audio failed", "session", s.ID, "error", err.Error())
		c.deps.Metrics.CountDuckFailure(releaseCtx, "release")
	}
}

func (c *Controller) startTicker(s *Session) {
	interval := time.Duration(s.Config.Indicator.LevelIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = defaultLevelInterval
	}
	c.stopTicker()
	c.ticker = time.NewTicker(interval)
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Controller) sampleLevel() {
	s := c.active
	if s == nil || s.recording == nil || c.State() != fsm.StateRecording {
		c.stopTicker()
		return
	}
	level := s.recording.Level()
	c.setLevel(level)
	c.publish(indicator.State{Phase: indicator.PhaseRecording, Level: level})
}

// goWorker runs fn off the loop with the controller's run context.
func (c *Controller) goWorker(fn func(ctx context.Context)) {
	ctx := c.runCtx
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		fn(ctx)
	}()
}

// post delivers a worker result to the loop. It gives up once the loop is
// shutting down.
func (c *Controller) post(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.runCtx.Done():
		return false
	}
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.deps.Logger.Debug("transition rejected", "state", string(c.state), "event", string(event), "error", err.Error())
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) setState(state fsm.State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) publish(s indicator.State) {
	c.mu.Lock()
	c.shown = s
	c.mu.Unlock()
	c.deps.Indicator.Publish(s)
}

func (c *Controller) setLevel(level float64) {
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
}

func (c *Controller) setLastText(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	c.lastText = text
	c.mu.Unlock()
}

// failureMessage is the short text flashed on the indicator for err.
func failureMessage(err error) string {
	var pasteErr *output.PasteError
	switch {
	case errors.Is(err, transcribe.ErrNoSpeech):
		return "No speech detected"
	case errors.As(err, &pasteErr) && pasteErr.Retained:
		return "Paste failed, text is on the clipboard"
	case errors.As(err, &pasteErr):
		return "Paste failed"
	}
	if _, ok := audio.IsCaptureError(err); ok {
		return "Microphone unavailable"
	}
	var transcribeErr *transcribe.Error
	if errors.As(err, &transcribeErr) {
		return "Speech recognition failed"
	}
	return "Dictation failed"
}
