// Package ducker lowers the system output volume while recording and puts
// it back afterwards.
package ducker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// VolumeNorm is the PulseAudio volume value for 100%.
const VolumeNorm = 0x10000

// Volume holds per-channel sink volumes in PulseAudio units.
type Volume []uint32

// Percent is the mean channel volume as a rounded percentage.
func (v Volume) Percent() int {
	if len(v) == 0 {
		return 0
	}
	var sum uint64
	for _, ch := range v {
		sum += uint64(ch)
	}
	mean := float64(sum) / float64(len(v))
	return int(math.Round(mean * 100 / VolumeNorm))
}

// WithPercent returns a copy with every channel set to percent.
func (v Volume) WithPercent(percent int) Volume {
	level := uint32(math.Round(float64(percent) * VolumeNorm / 100))
	out := make(Volume, len(v))
	for i := range out {
		out[i] = level
	}
	return out
}

// Mixer reads and writes the default output sink volume.
type Mixer interface {
	Volume(ctx context.Context) (Volume, error)
	SetVolume(ctx context.Context, v Volume) error
}

// Ducker pairs each Engage with at most one restoring Release.
type Ducker struct {
	mixer  Mixer
	logger *slog.Logger

	mu      sync.Mutex
	engaged bool
	saved   Volume
}

// New builds a ducker over mixer.
func New(mixer Mixer, logger *slog.Logger) *Ducker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ducker{mixer: mixer, logger: logger}
}

// Engage records the current volume and lowers it to targetPercent when it
// is louder. Engaging twice keeps the first recorded volume.
func (d *Ducker) Engage(ctx context.Context, targetPercent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.engaged {
		return nil
	}

	current, err := d.mixer.Volume(ctx)
	if err != nil {
		return fmt.Errorf("read sink volume: %w", err)
	}
	if current.Percent() <= targetPercent {
		d.logger.Debug("ducking skipped, volume already low", "current_percent", current.Percent(), "target_percent", targetPercent)
		return nil
	}

	if err := d.mixer.SetVolume(ctx, current.WithPercent(targetPercent)); err != nil {
		return fmt.Errorf("lower sink volume: %w", err)
	}
	d.engaged = true
	d.saved = append(Volume(nil), current...)
	d.logger.Debug("system audio ducked", "from_percent", current.Percent(), "to_percent", targetPercent)
	return nil
}

// Release restores the volume recorded by Engage. It is a no-op when
// nothing is engaged.
func (d *Ducker) Release(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.engaged {
		return nil
	}
	d.engaged = false
	saved := d.saved
	d.saved = nil

	if err := d.mixer.SetVolume(ctx, saved); err != nil {
		return fmt.Errorf("restore sink volume: %w", err)
	}
	d.logger.Debug("system audio restored", "percent", saved.Percent())
	return nil
}

// Engaged reports whether a restore is pending.
func (d *Ducker) Engaged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engaged
}
