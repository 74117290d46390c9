package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBufferSamplesAreCopies(t *testing.T) {
	src := []int16{1, 2, 3}
	buf := NewBuffer(src)
	src[0] = 99

	got := buf.Samples()
	require.Equal(t, []int16{1, 2, 3}, got)

	got[1] = 42
	require.Equal(t, []int16{1, 2, 3}, buf.Samples())
}

func TestBufferPCMRoundTrip(t *testing.T) {
	buf := NewBuffer([]int16{0, -1, 32767, -32768})
	require.Equal(t, buf.Samples(), BufferFromPCM(buf.PCM()).Samples())
	require.Len(t, BufferFromPCM([]byte{1, 2, 3}).Samples(), 1)
}

func TestBufferDurationAndFloat32(t *testing.T) {
	buf := NewBuffer(make([]int16, SampleRate/2))
	require.Equal(t, 500*time.Millisecond, buf.Duration())

	scaled := NewBuffer([]int16{-32768, 16384}).Float32()
	require.InDelta(t, -1.0, scaled[0], 1e-6)
	require.InDelta(t, 0.5, scaled[1], 1e-6)
}

func TestBufferSilent(t *testing.T) {
	require.True(t, NewBuffer(nil).Silent(450))
	require.True(t, NewBuffer([]int16{0, 0, 0}).Silent(450))
	require.True(t, NewBuffer([]int16{450, -450}).Silent(450))
	require.False(t, NewBuffer([]int16{0, -451}).Silent(450))
}

func TestBufferTrimKeepsPadding(t *testing.T) {
	samples := make([]int16, 100)
	samples[40] = 1000
	samples[60] = -1000
	buf := NewBuffer(samples)

	// 10 samples of padding at 16 kHz.
	padding := 10 * time.Second / SampleRate
	trimmed := buf.Trim(450, padding)
	require.Equal(t, 41, trimmed.Len())
	require.Equal(t, int16(1000), trimmed.Samples()[10])
	require.Equal(t, int16(-1000), trimmed.Samples()[30])
}

func TestBufferTrimClampsToBounds(t *testing.T) {
	buf := NewBuffer([]int16{900, 0, 0, 900})
	trimmed := buf.Trim(450, time.Second)
	require.Equal(t, buf.Samples(), trimmed.Samples())
}

func TestBufferTrimSilentIsEmpty(t *testing.T) {
	trimmed := NewBuffer([]int16{1, 2, 3}).Trim(450, 120*time.Millisecond)
	require.Equal(t, 0, trimmed.Len())
}
