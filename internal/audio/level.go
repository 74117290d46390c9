package audio

import (
	"math"
	"sync"
)

// LevelMeter tracks a smoothed 0..1 input level from PCM chunks.
type LevelMeter struct {
	mu    sync.Mutex
	level float64
}

// Observe folds one chunk of samples into the smoothed level.
func (m *LevelMeter) Observe(samples []int16) {
	if len(samples) == 0 {
		return
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	instant := math.Min(math.Max(rms*6, 0), 1)

	m.mu.Lock()
	m.level = 0.6*m.level + 0.4*instant
	m.mu.Unlock()
}

// Level returns the current smoothed level.
func (m *LevelMeter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Reset zeroes the level.
func (m *LevelMeter) Reset() {
	m.mu.Lock()
	m.level = 0
	m.mu.Unlock()
}
