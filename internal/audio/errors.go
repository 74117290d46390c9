package audio

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies capture failures.
type Kind string

const (
	KindDevice      Kind = "device"
	KindPermission  Kind = "permission"
	KindUnavailable Kind = "unavailable"
)

// CaptureError reports a capture failure. No partial buffer accompanies it.
type CaptureError struct {
	Kind   Kind
	Device string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("audio capture (%s, %s): %v", e.Kind, e.Device, e.Err)
	}
	return fmt.Sprintf("audio capture (%s): %v", e.Kind, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IsCaptureError reports whether err carries a CaptureError and returns it.
func IsCaptureError(err error) (*CaptureError, bool) {
	var capErr *CaptureError
	if errors.As(err, &capErr) {
		return capErr, true
	}
	return nil, false
}

func newCaptureError(kind Kind, device string, err error) error {
	var existing *CaptureError
	if errors.As(err, &existing) {
		return err
	}
	return &CaptureError{Kind: kind, Device: device, Err: err}
}

func classify(err error) Kind {
	if err == nil {
		return KindUnavailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"), strings.Contains(msg, "permission"), strings.Contains(msg, "not authorized"):
		return KindPermission
	case strings.Contains(msg, "no such entity"), strings.Contains(msg, "not found"):
		return KindDevice
	default:
		return KindUnavailable
	}
}
