// Package ipc carries newline-delimited JSON commands between the speakflow
// CLI and the running daemon over a unix socket.
package ipc

// Commands understood by the daemon.
const (
	CommandPress     = "press"
	CommandRelease   = "release"
	CommandToggle    = "toggle"
	CommandStop      = "stop"
	CommandCancel    = "cancel"
	CommandPasteLast = "paste-last"
	CommandStatus    = "status"
	CommandKey       = "key"
)

// Request is one client command. Key and Down are only set for CommandKey.
type Request struct {
	Command string `json:"command"`
	Key     string `json:"key,omitempty"`
	Down    bool   `json:"down,omitempty"`
}

type Response struct {
	OK      bool    `json:"ok"`
	State   string  `json:"state,omitempty"`
	Level   float64 `json:"level,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
}
