package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

type fakeBackend struct {
	mu      sync.Mutex
	rec     recognition
	err     error
	block   chan struct{}
	delay   time.Duration
	calls   int
	lastReq request
	closed  int

	running            int
	maxRunning         int
	closedWhileRunning bool
}

func (f *fakeBackend) recognize(samples []float32, req request) (recognition, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.running++
	f.maxRunning = max(f.maxRunning, f.running)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.running--
	f.mu.Unlock()
	return f.rec, f.err
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	if f.running > 0 {
		f.closedWhileRunning = true
	}
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func speechBuffer(d time.Duration) audio.Buffer {
	n := int(d.Seconds() * audio.SampleRate)
	samples := make([]int16, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 4000
		} else {
			samples[i] = -4000
		}
	}
	return audio.NewBuffer(samples)
}

func TestTranscribeEnglishAuto(t *testing.T) {
	fb := &fakeBackend{rec: recognition{
		segments:         []string{" hello ", "  world"},
		detectedLanguage: "en",
		confidence:       0.9,
	}}
	engine := newEngine(fb, nil)

	res, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{
		Language:         config.LanguageAuto,
		Prompt:           "SpeakFlow, Hyprland",
		SilenceThreshold: 450,
	})
	require.NoError(t, err)
	require.Equal(t, "hello world", res.Text)
	require.Equal(t, "hello world", res.RawText)
	require.Equal(t, "en", res.DetectedLanguage)
	require.Equal(t, transcript.ModeEnglish, res.OutputMode)
	require.Equal(t, "auto", fb.lastReq.language)
	require.Equal(t, "SpeakFlow, Hyprland", fb.lastReq.prompt)
}

func TestTranscribeHinglishRomanizesDevanagari(t *testing.T) {
	fb := &fakeBackend{rec: recognition{
		segments:         []string{"नमस्ते"},
		detectedLanguage: "hi",
		confidence:       0.8,
	}}
	engine := newEngine(fb, nil)

	res, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{
		Language:         config.LanguageHinglishRoman,
		SilenceThreshold: 450,
	})
	require.NoError(t, err)
	require.Equal(t, "hi", fb.lastReq.language)
	require.Equal(t, transcript.ModeHinglishRoman, res.OutputMode)
	require.Equal(t, "namaste", res.Text)
	require.False(t, transcript.ContainsDevanagari(res.Text))
}

func TestTranscribeForcesEnglish(t *testing.T) {
	fb := &fakeBackend{rec: recognition{segments: []string{"ok"}, detectedLanguage: "en"}}
	engine := newEngine(fb, nil)

	_, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{Language: config.LanguageEnglish})
	require.NoError(t, err)
	require.Equal(t, "en", fb.lastReq.language)
}

func TestTranscribeSilentBufferSkipsEngine(t *testing.T) {
	fb := &fakeBackend{}
	engine := newEngine(fb, nil)

	_, err := engine.Transcribe(context.Background(), audio.NewBuffer(make([]int16, audio.SampleRate)), Options{SilenceThreshold: 450})
	require.ErrorIs(t, err, ErrNoSpeech)
	require.Equal(t, "no speech detected", err.Error())
	require.Zero(t, fb.calls)
}

func TestTranscribeShortBufferSkipsEngine(t *testing.T) {
	fb := &fakeBackend{}
	engine := newEngine(fb, nil)

	_, err := engine.Transcribe(context.Background(), speechBuffer(50*time.Millisecond), Options{SilenceThreshold: 450})
	require.ErrorIs(t, err, ErrNoSpeech)
	require.Zero(t, fb.calls)
}

func TestTranscribeEmptyTextIsNoSpeech(t *testing.T) {
	fb := &fakeBackend{rec: recognition{segments: []string{"   "}}}
	engine := newEngine(fb, nil)

	_, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{SilenceThreshold: 450})
	require.ErrorIs(t, err, ErrNoSpeech)
}

func TestTranscribeWrapsEngineFailure(t *testing.T) {
	fb := &fakeBackend{err: errors.New("boom")}
	engine := newEngine(fb, nil)

	_, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{SilenceThreshold: 450})
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "decode", terr.Op)
	require.Contains(t, err.Error(), "boom")
}

func TestTranscribeReturnsOnContextCancel(t *testing.T) {
	fb := &fakeBackend{block: make(chan struct{}), rec: recognition{segments: []string{"late"}}}
	defer close(fb.block)
	engine := newEngine(fb, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := engine.Transcribe(ctx, speechBuffer(time.Second), Options{SilenceThreshold: 450})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngineCloseWaitsForAbandonedDecode(t *testing.T) {
	fb := &fakeBackend{block: make(chan struct{}), rec: recognition{segments: []string{"late"}}}
	engine := newEngine(fb, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := engine.Transcribe(ctx, speechBuffer(time.Second), Options{SilenceThreshold: 450})
		errc <- err
	}()
	require.Eventually(t, func() bool { return fb.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	closed := make(chan error, 1)
	go func() { closed <- engine.Close() }()
	select {
	case <-closed:
		t.Fatal("Close returned while a decode was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(fb.block)
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the decode finished")
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.False(t, fb.closedWhileRunning)
	require.Equal(t, 1, fb.closed)
}

func TestTranscribeAfterCloseFails(t *testing.T) {
	fb := &fakeBackend{rec: recognition{segments: []string{"hello"}}}
	engine := newEngine(fb, nil)
	require.NoError(t, engine.Close())

	_, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{SilenceThreshold: 450})
	require.ErrorIs(t, err, ErrClosed)
	require.Zero(t, fb.callCount())
}

func TestTranscribeSerializesDecodes(t *testing.T) {
	fb := &fakeBackend{delay: 20 * time.Millisecond, rec: recognition{segments: []string{"hello"}, detectedLanguage: "en"}}
	engine := newEngine(fb, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transcribe(context.Background(), speechBuffer(time.Second), Options{SilenceThreshold: 450})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.Equal(t, 4, fb.calls)
	require.Equal(t, 1, fb.maxRunning)
}

func TestEngineCloseOnce(t *testing.T) {
	fb := &fakeBackend{}
	engine := newEngine(fb, nil)
	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())
	require.Equal(t, 1, fb.closed)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LanguageMode = config.LanguageHinglishRoman
	cfg.Whisper.PromptPhrases = []string{"SpeakFlow", "Hyprland"}

	opts := OptionsFromConfig(cfg)
	require.Equal(t, config.LanguageHinglishRoman, opts.Language)
	require.Equal(t, "SpeakFlow, Hyprland", opts.Prompt)
	require.Equal(t, 450, opts.SilenceThreshold)
}

func TestLoadMissingModel(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"), 2, nil)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "load model", terr.Op)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("  ", 2, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}

func TestExpandModelPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "models/x.bin"), ExpandModelPath("~/models/x.bin"))
	require.Equal(t, "/abs/x.bin", ExpandModelPath("/abs/x.bin"))
}
