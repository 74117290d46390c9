// Package pipeline binds device selection and capture into per-session
// recordings.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

type capture interface {
	Level() float64
	Stop() audio.Buffer
}

// Recorder starts captures on the configured input source.
type Recorder struct {
	logger *slog.Logger

	selectDevice func(ctx context.Context, input, fallback string) (audio.Selection, error)
	startCapture func(ctx context.Context, device audio.Device) (capture, error)
	dumpDir      func() (string, error)
}

// NewRecorder returns a Recorder backed by PulseAudio.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device) (capture, error) {
			c, err := audio.StartCapture(ctx, device)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		dumpDir: debugDir,
	}
}

// Start resolves the input device and begins capturing. ctx bounds the
// capture stream's lifetime.
func (r *Recorder) Start(ctx context.Context, cfg config.Config) (*Recording, error) {
	selection, err := r.selectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning, "device", selection.Device.ID)
	}

	c, err := r.startCapture(ctx, selection.Device)
	if err != nil {
		return nil, err
	}

	return &Recording{
		recorder:  r,
		capture:   c,
		device:    describeDevice(selection.Device),
		threshold: cfg.Audio.SilenceThreshold,
		padding:   time.Duration(cfg.Audio.SilencePaddingMS) * time.Millisecond,
		dump:      cfg.Debug.EnableAudioDump,
	}, nil
}

// Recording is one in-flight capture.
type Recording struct {
	recorder  *Recorder
	capture   capture
	device    string
	threshold int
	padding   time.Duration
	dump      bool

	once   sync.Once
	result audio.Buffer
}

// Level is the live smoothed input level in 0..1.
func (r *Recording) Level() float64 {
	return r.capture.Level()
}

// Device describes the capture source.
func (r *Recording) Device() string {
	return r.device
}

// Stop ends capture and returns the silence-trimmed buffer. The untrimmed
// buffer is written to the debug directory when audio dumps are enabled.
// Later calls return the same buffer.
func (r *Recording) Stop() audio.Buffer {
	r.once.Do(func() {
		raw := r.capture.Stop()
		r.writeDump(raw)
		r.result = raw.Trim(r.threshold, r.padding)
	})
	return r.result
}

// Cancel ends capture and discards the audio.
func (r *Recording) Cancel() {
	r.once.Do(func() {
		r.capture.Stop()
	})
}

func (r *Recording) writeDump(buf audio.Buffer) {
	if !r.dump || buf.Len() == 0 {
		return
	}
	dir, err := r.recorder.dumpDir()
	if err != nil {
		r.recorder.logger.Warn("resolve debug audio dir", "error", err)
		return
	}
	path, err := WriteWAV(dir, buf, time.Now())
	if err != nil {
		r.recorder.logger.Warn("write debug audio dump", "error", err)
		return
	}
	r.recorder.logger.Debug("debug audio dump written", "path", path)
}

// describeDevice formats device metadata for logs and history.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}
