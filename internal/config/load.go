package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const appDir = "speakflow"

// Loaded is a parsed config together with where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// ResolvePath picks the config file: an explicit path wins, then
// $XDG_CONFIG_HOME/speakflow, then ~/.config/speakflow.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir, "config.jsonc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", appDir, "config.jsonc"), nil
}

// Load reads and validates the config. Defaults are used, with a warning,
// when the file is missing or does not parse; only an unresolvable path or
// an unreadable file is an error.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	out := Loaded{Path: path, Config: Default()}

	snap, err := readSnapshot(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		out.Warnings = []Warning{{Message: fmt.Sprintf("config file %q not found; using defaults", path)}}
		return out, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}
	out.Exists = true

	cfg, warnings, err := Parse(string(snap.data), Default())
	if err != nil {
		out.Warnings = []Warning{{
			Message: fmt.Sprintf("parse config %q: %v; using defaults", path, err),
			Err:     err,
		}}
		return out, nil
	}
	out.Config = cfg
	out.Warnings = warnings
	return out, nil
}

// snapshot is one read of the config file.
type snapshot struct {
	data  []byte
	hash  [sha256.Size]byte
	mtime time.Time
}

func readSnapshot(path string) (snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return snapshot{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return snapshot{}, fmt.Errorf("stat config: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return snapshot{}, fmt.Errorf("read config: %w", err)
	}
	return snapshot{data: data, hash: sha256.Sum256(data), mtime: info.ModTime()}, nil
}
