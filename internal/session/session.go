// Package session owns the dictation lifecycle: one controller loop applies
// state machine transitions and starts the stage workers for each session.
package session

import (
	"errors"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

var (
	// ErrSessionBusy rejects a press while another session is active.
	ErrSessionBusy = errors.New("session busy")
	// ErrNoLastDictation rejects paste-last before anything was dictated.
	ErrNoLastDictation = errors.New("No recent dictation available to paste.")
	// ErrPipelineUnavailable reports a collaborator that was never wired.
	ErrPipelineUnavailable = errors.New("dictation pipeline not configured")
	// ErrQueueFull reports that the controller could not accept an event.
	ErrQueueFull = errors.New("controller queue full")
)

// Outcome is the terminal result of a session.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

// Session is one dictation from press to terminal state. It is owned by the
// controller loop; workers only read the fields set before they start.
type Session struct {
	ID        string
	Config    config.Config
	StartedAt time.Time
	EndedAt   time.Time

	TargetApp        string
	Device           string
	RawText          string
	CleanedText      string
	FinalText        string
	DetectedLanguage string
	Confidence       float64
	OutputMode       transcript.OutputMode
	CleanupProvider  string

	Outcome Outcome
	Err     error

	// Stage latencies.
	CaptureLatency    time.Duration
	TranscribeLatency time.Duration
	CleanupLatency    time.Duration
	PasteLatency      time.Duration
	PasteAttempts     int

	recording      Recording
	captureStopped bool
	releasePending bool
	releasedAt     time.Time
	cancelPending  bool
	pasteLast      bool
	duckHeld       bool
}

// Duration is the wall time from press to terminal state.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}
