package transcribe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// whisperBackend decodes with the whisper.cpp CGO bindings. The model is
// shared; every recognize call creates its own context.
type whisperBackend struct {
	model   whisperlib.Model
	threads uint
	logger  *slog.Logger
}

// Load reads the whisper.cpp model at modelPath ("~/" expanded) once.
func Load(modelPath string, threads int, logger *slog.Logger) (*Engine, error) {
	path := ExpandModelPath(modelPath)
	if path == "" {
		return nil, &Error{Op: "load model", Err: errors.New("model path must not be empty")}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Op: "load model", Err: err}
	}

	model, err := whisperlib.New(path)
	if err != nil {
		return nil, &Error{Op: "load model", Err: fmt.Errorf("%q: %w", path, err)}
	}
	if threads <= 0 {
		threads = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &whisperBackend{model: model, threads: uint(threads), logger: logger}
	return newEngine(b, logger), nil
}

func (b *whisperBackend) Close() error {
	return b.model.Close()
}

func (b *whisperBackend) recognize(samples []float32, req request) (recognition, error) {
	wctx, err := b.model.NewContext()
	if err != nil {
		return recognition{}, fmt.Errorf("create context: %w", err)
	}

	wctx.SetThreads(b.threads)
	if err := wctx.SetLanguage(req.language); err != nil {
		b.logger.Warn("whisper: failed to set language, using model default", "language", req.language, "error", err.Error())
	}
	if req.prompt != "" {
		wctx.SetInitialPrompt(req.prompt)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return recognition{}, fmt.Errorf("process audio: %w", err)
	}

	var (
		parts    []string
		probSum  float64
		numProbs int
	)
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return recognition{}, fmt.Errorf("read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
		for _, token := range segment.Tokens {
			probSum += float64(token.P)
			numProbs++
		}
	}

	rec := recognition{segments: parts, detectedLanguage: req.language}
	if req.language == "auto" {
		rec.detectedLanguage = wctx.DetectedLanguage()
	}
	if numProbs > 0 {
		rec.confidence = probSum / float64(numProbs)
	}
	return rec, nil
}

// ExpandModelPath resolves a leading "~/" against the user's home directory.
func ExpandModelPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
