package audio

import (
	"encoding/binary"
	"time"
)

// SampleRate is the capture rate for every buffer: 16 kHz mono s16le.
const SampleRate = 16000

// Buffer is an immutable run of PCM16 mono samples from one session.
type Buffer struct {
	samples []int16
}

// NewBuffer copies samples into a new Buffer.
func NewBuffer(samples []int16) Buffer {
	return Buffer{samples: append([]int16(nil), samples...)}
}

// BufferFromPCM decodes little-endian s16 bytes. A trailing odd byte is dropped.
func BufferFromPCM(pcm []byte) Buffer {
	return Buffer{samples: decodeSamples(pcm)}
}

// Samples returns a copy of the buffered samples.
func (b Buffer) Samples() []int16 {
	return append([]int16(nil), b.samples...)
}

// PCM encodes the buffer as little-endian s16 bytes.
func (b Buffer) PCM() []byte {
	out := make([]byte, len(b.samples)*2)
	for i, s := range b.samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Float32 returns samples scaled to [-1, 1).
func (b Buffer) Float32() []float32 {
	out := make([]float32, len(b.samples))
	for i, s := range b.samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

func (b Buffer) Len() int {
	return len(b.samples)
}

func (b Buffer) Duration() time.Duration {
	return time.Duration(len(b.samples)) * time.Second / SampleRate
}

// Peak returns the largest absolute sample value.
func (b Buffer) Peak() int {
	peak := 0
	for _, s := range b.samples {
		if v := abs16(s); v > peak {
			peak = v
		}
	}
	return peak
}

// Silent reports whether no sample exceeds threshold.
func (b Buffer) Silent(threshold int) bool {
	return b.Peak() <= threshold
}

// Trim drops leading and trailing samples at or below threshold, keeping
// padding on each side of the voiced region. A silent buffer trims to empty.
func (b Buffer) Trim(threshold int, padding time.Duration) Buffer {
	first, last := -1, -1
	for i, s := range b.samples {
		if abs16(s) > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Buffer{}
	}

	pad := int(padding * SampleRate / time.Second)
	start := max(first-pad, 0)
	end := min(last+pad+1, len(b.samples))
	return NewBuffer(b.samples[start:end])
}

func abs16(s int16) int {
	v := int(s)
	if v < 0 {
		return -v
	}
	return v
}
