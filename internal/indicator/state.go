package indicator

import "strings"

// Phase is the coarse state shown to the user.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseSuccess      Phase = "success"
	PhaseError        Phase = "error"
)

// State is one projection of the dictation state machine.
type State struct {
	Phase   Phase
	Level   float64
	Message string
}

// Flash reports whether the phase is a terminal flash that auto-hides.
func (s State) Flash() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseError
}

const meterCells = 8

// meter renders level in [0,1] as a fixed-width bar.
func meter(level float64) string {
	level = min(max(level, 0), 1)
	filled := int(level*meterCells + 0.5)
	return strings.Repeat("▮", filled) + strings.Repeat("▯", meterCells-filled)
}
