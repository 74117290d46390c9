package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/history"
	"github.com/agarwal-mihir/SpeakFlow/internal/metrics"
)

func (c *Controller) observe(s *Session) {
	ctx := context.WithoutCancel(c.runCtx)
	m := c.deps.Metrics
	if !s.pasteLast {
		m.CountSession(ctx, string(s.Outcome))
	}
	stages := []struct {
		name    string
		latency time.Duration
	}{
		{metrics.StageCapture, s.CaptureLatency},
		{metrics.StageTranscribe, s.TranscribeLatency},
		{metrics.StageCleanup, s.CleanupLatency},
		{metrics.StagePaste, s.PasteLatency},
	}
	for _, st := range stages {
		if st.latency > 0 {
			m.ObserveStage(ctx, st.name, st.latency)
		}
	}
	m.ObserveStage(ctx, metrics.StageSession, s.Duration())
}

func logSessionResult(logger *slog.Logger, s *Session) {
	if logger == nil {
		return
	}
	fields := []any{
		"session", s.ID,
		"outcome", string(s.Outcome),
		"paste_last", s.pasteLast,
		"started_at", s.StartedAt.Format(time.RFC3339Nano),
		"duration_ms", s.Duration().Milliseconds(),
		"capture_ms", s.CaptureLatency.Milliseconds(),
		"transcribe_ms", s.TranscribeLatency.Milliseconds(),
		"cleanup_ms", s.CleanupLatency.Milliseconds(),
		"paste_ms", s.PasteLatency.Milliseconds(),
		"paste_attempts", s.PasteAttempts,
		"audio_device", s.Device,
		"target_app", s.TargetApp,
		"detected_language", s.DetectedLanguage,
		"output_mode", string(s.OutputMode),
		"cleanup_provider", s.CleanupProvider,
		"transcript_length", len(s.FinalText),
	}

	if s.Err != nil && s.Outcome == OutcomeError {
		logger.Error("session failed", append(fields, "error", s.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func historyEntry(s *Session) history.Entry {
	e := history.Entry{
		SessionID:        s.ID,
		CreatedAt:        s.StartedAt,
		RawText:          s.RawText,
		FinalText:        s.FinalText,
		DetectedLanguage: s.DetectedLanguage,
		Confidence:       s.Confidence,
		OutputMode:       string(s.OutputMode),
		SourceApp:        s.TargetApp,
		Outcome:          string(s.Outcome),
		CleanupProvider:  s.CleanupProvider,
		Duration:         s.Duration(),
	}
	if s.Err != nil {
		e.Error = s.Err.Error()
	}
	return e
}
