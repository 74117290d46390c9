package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelMeterSmoothsTowardInstantLevel(t *testing.T) {
	var meter LevelMeter
	require.Zero(t, meter.Level())

	loud := make([]int16, 320)
	for i := range loud {
		loud[i] = 16384
	}

	// rms 0.5 * 6 clamps to 1.0; first update is 0.4 of it.
	meter.Observe(loud)
	require.InDelta(t, 0.4, meter.Level(), 1e-9)

	meter.Observe(loud)
	require.InDelta(t, 0.64, meter.Level(), 1e-9)

	meter.Observe(make([]int16, 320))
	require.InDelta(t, 0.384, meter.Level(), 1e-9)

	meter.Observe(nil)
	require.InDelta(t, 0.384, meter.Level(), 1e-9)

	meter.Reset()
	require.Zero(t, meter.Level())
}

func TestLevelMeterQuietInputStaysLow(t *testing.T) {
	var meter LevelMeter
	quiet := make([]int16, 320)
	for i := range quiet {
		quiet[i] = 328 // ~0.01 full scale
	}
	meter.Observe(quiet)
	require.InDelta(t, 0.4*0.06, meter.Level(), 1e-3)
}
