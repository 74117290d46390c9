package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/history"
	"github.com/agarwal-mihir/SpeakFlow/internal/indicator"
	"github.com/agarwal-mihir/SpeakFlow/internal/logging"
	"github.com/agarwal-mihir/SpeakFlow/internal/output"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcribe"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

type fakeRecording struct {
	level   float64
	buf     audio.Buffer
	stops   atomic.Int32
	cancels atomic.Int32

	// cancelBlock, when set, holds Cancel until it is closed.
	cancelBlock chan struct{}
}

func (f *fakeRecording) Level() float64 { return f.level }
func (f *fakeRecording) Device() string { return "test mic" }

func (f *fakeRecording) Stop() audio.Buffer {
	f.stops.Add(1)
	return f.buf
}

func (f *fakeRecording) Cancel() {
	if f.cancelBlock != nil {
		<-f.cancelBlock
	}
	f.cancels.Add(1)
}

type fakeRecorder struct {
	rec    *fakeRecording
	err    error
	starts atomic.Int32
}

func (f *fakeRecorder) Start(context.Context, config.Config) (Recording, error) {
	f.starts.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

// fakeDucker mimics a mixer that saves the volume on Engage and restores
// it on Release.
type fakeDucker struct {
	engages  atomic.Int32
	releases atomic.Int32

	mu      sync.Mutex
	level   int
	saved   int
	engaged bool
}

func newFakeDucker() *fakeDucker { return &fakeDucker{level: 100} }

func (f *fakeDucker) Engage(_ context.Context, percent int) error {
	f.engages.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.engaged {
		return nil
	}
	f.saved, f.level, f.engaged = f.level, percent, true
	return nil
}

func (f *fakeDucker) Release(context.Context) error {
	f.releases.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.engaged {
		f.level, f.engaged = f.saved, false
	}
	return nil
}

func (f *fakeDucker) volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

type fakeTranscriber struct {
	result transcribe.Result
	err    error
	block  chan struct{}
	calls  atomic.Int32
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, _ audio.Buffer, _ transcribe.Options) (transcribe.Result, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return transcribe.Result{}, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeInjector struct {
	mu         sync.Mutex
	pasted     []string
	pastedLast []string
}

func (f *fakeInjector) Paste(_ context.Context, text string, _ output.Policy) output.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pasted = append(f.pasted, text)
	return output.Result{Status: output.StatusSuccess, Attempts: 1}
}

func (f *fakeInjector) PasteLast(_ context.Context, text string) output.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pastedLast = append(f.pastedLast, text)
	return output.Result{Status: output.StatusSuccess, Attempts: 1}
}

func (f *fakeInjector) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pasted...), append([]string(nil), f.pastedLast...)
}

type recordingIndicator struct {
	mu     sync.Mutex
	states []indicator.State
}

func (r *recordingIndicator) Publish(s indicator.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recordingIndicator) phases() []indicator.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]indicator.Phase, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s.Phase)
	}
	return out
}

func (r *recordingIndicator) last() indicator.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return indicator.State{}
	}
	return r.states[len(r.states)-1]
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (f *fakeHistory) Record(_ context.Context, e history.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) all() []history.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]history.Entry(nil), f.entries...)
}

// memClipboard is an in-memory clipboard for driving a real output.Injector.
type memClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *memClipboard) Read(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *memClipboard) Write(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *memClipboard) get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

type failingDispatcher struct{ calls atomic.Int32 }

func (*failingDispatcher) Name() string { return "fake" }

func (d *failingDispatcher) Dispatch(context.Context) error {
	d.calls.Add(1)
	return errors.New("synthetic input blocked")
}

// harness bundles a running controller with its fakes.
type harness struct {
	ctrl        *Controller
	cfg         config.Config
	recorder    *fakeRecorder
	recording   *fakeRecording
	ducker      *fakeDucker
	transcriber *fakeTranscriber
	injector    *fakeInjector
	indicator   *recordingIndicator
	history     *fakeHistory
	cancel      context.CancelFunc
	done        chan error
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Audio.MinRecordingMS = 0
	cfg.Indicator.LevelIntervalMS = 60000
	cfg.Cleanup.Provider = config.ProviderDeterministic
	return cfg
}

func speech() audio.Buffer {
	samples := make([]int16, audio.SampleRate/2)
	for i := range samples {
		samples[i] = 3000
	}
	return audio.NewBuffer(samples)
}

// newHarness builds the controller. mutate may adjust deps before it starts.
func newHarness(t *testing.T, cfg config.Config, mutate func(*Deps, *harness)) *harness {
	t.Helper()
	h := &harness{
		cfg:       cfg,
		recording: &fakeRecording{level: 0.5, buf: speech()},
		ducker:    newFakeDucker(),
		transcriber: &fakeTranscriber{result: transcribe.Result{
			Text:       "hello world",
			RawText:    "hello world",
			OutputMode: transcript.ModeEnglish,
		}},
		injector:  &fakeInjector{},
		indicator: &recordingIndicator{},
		history:   &fakeHistory{},
	}
	h.recorder = &fakeRecorder{rec: h.recording}

	deps := Deps{
		Logger:      logging.Discard(),
		Config:      func() config.Config { return h.cfg },
		Recorder:    h.recorder,
		Ducker:      h.ducker,
		Transcriber: h.transcriber,
		Injector:    func(config.Config) Injector { return h.injector },
		Indicator:   h.indicator,
		History:     h.history,
		TargetApp:   func(context.Context) string { return "kitty" },
	}
	if mutate != nil {
		mutate(&deps, h)
	}

	h.ctrl = NewController(deps)
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.ctrl.Run(ctx) }()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
	h.done <- nil
}

// shutdown cancels the controller and waits for Run to return.
func (h *harness) shutdown(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- nil
	case <-time.After(3 * time.Second):
		t.Fatal("controller did not stop")
	}
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.ctrl.State() == "idle"
	}, 2*time.Second, 5*time.Millisecond)
}
