package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/logging"
)

func debugDir() (string, error) {
	state, err := logging.StateDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(state, "debug"), nil
}

// WriteWAV writes buf as a 16-bit mono WAV file named after at inside dir
// and returns its path.
func WriteWAV(dir string, buf audio.Buffer, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("audio-%s.wav", at.Format("20060102-150405.000")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open debug file %q: %w", path, err)
	}
	defer file.Close()

	samples := buf.Samples()
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(file, audio.SampleRate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finalize wav: %w", err)
	}
	return path, nil
}
