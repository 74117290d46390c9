// Package doctor runs runtime readiness diagnostics for config, tools, audio,
// the whisper model, and the cleanup provider.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/secrets"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcribe"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))

	if !strings.EqualFold(strings.TrimSpace(cfg.Config.Clipboard.Backend), "system") {
		checks = append(checks, checkCommand(cfg.Config.Clipboard.Copy.Argv, "clipboard.copy"))
		checks = append(checks, checkCommand(cfg.Config.Clipboard.Read.Argv, "clipboard.read"))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Config.Paste.Method)) {
	case "command":
		checks = append(checks, checkCommand(cfg.Config.PasteCmd.Argv, "paste_cmd"))
	case "uinput":
		checks = append(checks, checkUinput("/dev/uinput"))
	default:
		checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
	}

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkWhisperModel(cfg.Config.Whisper))
	checks = append(checks, checkCleanup(cfg.Config.Cleanup, secrets.GroqAPIKeySource))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkUinput(path string) Check {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return Check{Name: "uinput", Pass: false, Message: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	_ = f.Close()
	return Check{Name: "uinput", Pass: true, Message: fmt.Sprintf("%s is writable", path)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkWhisperModel only stats the file; loading a large model here would
// take seconds.
func checkWhisperModel(cfg config.WhisperConfig) Check {
	path := transcribe.ExpandModelPath(cfg.ModelPath)
	if path == "" {
		return Check{Name: "whisper.model", Pass: false, Message: "whisper.model_path is empty"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: "whisper.model", Pass: false, Message: fmt.Sprintf("model not found: %s", path)}
	}
	if info.IsDir() {
		return Check{Name: "whisper.model", Pass: false, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return Check{Name: "whisper.model", Pass: true, Message: fmt.Sprintf("%s (%d MiB)", path, info.Size()>>20)}
}

// checkCleanup verifies the configured rewrite provider can be reached.
// A failing provider only degrades output, so the message says so.
func checkCleanup(cfg config.CleanupConfig, keySource func() (secrets.Source, error)) Check {
	switch cfg.Provider {
	case config.ProviderGroq:
		source, err := keySource()
		if err != nil {
			return Check{Name: "cleanup.groq", Pass: false, Message: fmt.Sprintf("API key unavailable (%v); raw transcripts will be pasted", err)}
		}
		return Check{Name: "cleanup.groq", Pass: true, Message: fmt.Sprintf("API key from %s, model %s", source, cfg.GroqModel)}
	case config.ProviderLMStudio:
		if !cfg.LMStudioEnabled {
			return Check{Name: "cleanup.lmstudio", Pass: true, Message: "disabled; deterministic cleanup in use"}
		}
		return checkLMStudio(cfg.LMStudioBaseURL)
	default:
		return Check{Name: "cleanup", Pass: true, Message: "deterministic cleanup"}
	}
}

// checkLMStudio probes the OpenAI-compatible model listing endpoint.
func checkLMStudio(baseURL string) Check {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Check{Name: "cleanup.lmstudio", Pass: false, Message: "lmstudio_base_url is empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := strings.TrimRight(base, "/") + "/models"
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: "cleanup.lmstudio", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "cleanup.lmstudio", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "cleanup.lmstudio", Pass: true, Message: fmt.Sprintf("reachable at %s", url)}
}
