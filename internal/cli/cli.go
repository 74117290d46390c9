// Package cli parses the speakflow command line.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun       Command = "run"
	CommandPress     Command = "press"
	CommandRelease   Command = "release"
	CommandToggle    Command = "toggle"
	CommandStop      Command = "stop"
	CommandCancel    Command = "cancel"
	CommandPasteLast Command = "paste-last"
	CommandStatus    Command = "status"
	CommandKey       Command = "key"
	CommandHistory   Command = "history"
	CommandDevices   Command = "devices"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

// argRange bounds the positional arguments each command accepts.
type argRange struct{ min, max int }

var validCommands = map[Command]argRange{
	CommandRun:       {},
	CommandPress:     {},
	CommandRelease:   {},
	CommandToggle:    {},
	CommandStop:      {},
	CommandCancel:    {},
	CommandPasteLast: {},
	CommandStatus:    {},
	CommandKey:       {min: 2, max: 2},
	CommandHistory:   {min: 0, max: 1},
	CommandDevices:   {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

// KeyEdge is the decoded argument pair of `key <name> <down|up>`.
type KeyEdge struct {
	Name string
	Down bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			bounds, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			rest := args[i+1:]
			if len(rest) < bounds.min {
				return Parsed{}, fmt.Errorf("command %q requires %d argument(s)", arg, bounds.min)
			}
			if len(rest) > bounds.max {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}

			parsed.Command = cmd
			parsed.Args = append([]string(nil), rest...)
			parsed.ShowHelp = cmd == CommandHelp
			return parsed, nil
		}
	}

	return parsed, nil
}

// ParseKeyEdge validates `key` command arguments.
func ParseKeyEdge(args []string) (KeyEdge, error) {
	if len(args) != 2 {
		return KeyEdge{}, errors.New("usage: key <name> <down|up>")
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	if name == "" {
		return KeyEdge{}, errors.New("key name must not be empty")
	}
	switch strings.ToLower(args[1]) {
	case "down":
		return KeyEdge{Name: name, Down: true}, nil
	case "up":
		return KeyEdge{Name: name, Down: false}, nil
	default:
		return KeyEdge{}, fmt.Errorf("key edge must be down or up, got %q", args[1])
	}
}

// ParseHistoryLimit returns the optional entry count for `history`.
func ParseHistoryLimit(args []string, fallback int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("history limit must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  run                  Run the dictation daemon
  press                Start recording (hotkey down)
  release              Stop recording and paste the transcript (hotkey up)
  toggle               Press when idle, release when recording
  stop                 Alias for release
  cancel               Cancel active recording and discard audio
  paste-last           Paste the most recent dictation again
  status               Print current state
  key <name> <down|up> Feed a raw key edge (fn, space, super, alt, v)
  history [N]          Show the N most recent sessions (default 10)
  devices              List available input devices
  doctor               Run configuration and environment checks
  version              Print version information
  help                 Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/speakflow/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
