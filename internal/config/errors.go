package config

import "fmt"

// Error describes one invalid configuration value that was replaced by its default.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

func invalid(key, format string, args ...any) Warning {
	err := &Error{Key: key, Reason: fmt.Sprintf(format, args...)}
	return Warning{
		Message: fmt.Sprintf("%s; using default", err.Error()),
		Err:     err,
	}
}
