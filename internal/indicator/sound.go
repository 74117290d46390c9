package indicator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
	cueError
)

const (
	cueSampleRate = 16000
	cueGap        = 22 * time.Millisecond
	cueVolume     = 0.18
)

// note is one sine segment of a cue.
type note struct {
	hz     float64
	length time.Duration
	gain   float64
}

// cueScores lists each cue as a short phrase: rising for start, a single
// low note for stop, falling for cancel and error.
var cueScores = map[cueKind][]note{
	cueStart:    {{880, 70 * time.Millisecond, cueVolume}, {1175, 70 * time.Millisecond, cueVolume}},
	cueStop:     {{620, 120 * time.Millisecond, cueVolume}},
	cueComplete: {{740, 65 * time.Millisecond, cueVolume}, {988, 90 * time.Millisecond, cueVolume}},
	cueCancel:   {{480, 75 * time.Millisecond, cueVolume}, {360, 90 * time.Millisecond, cueVolume}},
	cueError: {
		{330, 90 * time.Millisecond, 0.2},
		{330, 90 * time.Millisecond, 0.2},
		{247, 140 * time.Millisecond, 0.2},
	},
}

var renderedCues = sync.OnceValue(func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(cueScores))
	for kind, score := range cueScores {
		out[kind] = renderScore(score)
	}
	return out
})

// emitCue plays a synthesized cue on the default output and blocks until it
// has drained.
func emitCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playPCM(samples)
}

func cueSamples(kind cueKind) []int16 {
	return renderedCues()[kind]
}

func playPCM(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("speakflow"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := samples
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("speakflow cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// renderScore joins notes with short silences.
func renderScore(score []note) []int16 {
	var pcm []int16
	gap := make([]int16, samplesForDuration(cueGap))
	for i, n := range score {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, renderNote(n)...)
	}
	return pcm
}

// renderNote synthesizes a sine with linear fades (at most 5ms) to avoid
// clicks at the edges.
func renderNote(n note) []int16 {
	count := samplesForDuration(n.length)
	if count <= 0 || n.hz <= 0 || n.gain <= 0 {
		return nil
	}

	ramp := min(max(count/10, 1), cueSampleRate/200)
	pcm := make([]int16, count)
	for i := range pcm {
		fade := min(1, float64(i)/float64(ramp), float64(count-1-i)/float64(ramp))
		phase := 2 * math.Pi * n.hz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * n.gain * fade * math.MaxInt16))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
