package transcribe

import (
	"errors"
	"fmt"
)

// ErrNoSpeech reports a capture with nothing to transcribe.
var ErrNoSpeech = errors.New("no speech detected")

// ErrClosed is returned by Transcribe after Close.
var ErrClosed = errors.New("transcription engine closed")

// Error wraps model load and inference failures.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcribe %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
