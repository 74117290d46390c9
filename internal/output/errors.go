package output

import "fmt"

const retainedHint = "Clipboard now contains the last dictation for manual paste."

// PasteError reports a paste that did not reach the focused application.
type PasteError struct {
	Method   string
	Attempts int
	Retained bool
	Err      error
}

func (e *PasteError) Error() string {
	msg := fmt.Sprintf("paste via %s failed after %d attempt(s): %v", e.Method, e.Attempts, e.Err)
	if e.Retained {
		msg += ". " + retainedHint
	}
	return msg
}

func (e *PasteError) Unwrap() error {
	return e.Err
}
