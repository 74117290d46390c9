// Package hypr talks to the running Hyprland compositor through hyprctl.
package hypr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultNotifyColor = "rgb(89b4fa)"

// ActiveWindow is the subset of `hyprctl -j activewindow` used for paste
// targeting and history.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// App names the application owning the window.
func (w ActiveWindow) App() string {
	if w.Class != "" {
		return w.Class
	}
	return w.InitialClass
}

func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	var w ActiveWindow
	if err := query(ctx, "activewindow", &w); err != nil {
		return ActiveWindow{}, err
	}
	w.Address = strings.TrimSpace(w.Address)
	w.Class = strings.TrimSpace(w.Class)
	w.InitialClass = strings.TrimSpace(w.InitialClass)
	if w.Address == "" {
		return ActiveWindow{}, errors.New("hyprctl activewindow returned empty address")
	}
	return w, nil
}

// ActiveApp is QueryActiveWindow reduced to an app name, "" on any failure.
func ActiveApp(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	w, err := QueryActiveWindow(ctx)
	if err != nil {
		return ""
	}
	return w.App()
}

// SendShortcut dispatches a raw sendshortcut payload such as
// "CTRL,V,address:0xabc".
func SendShortcut(ctx context.Context, shortcut string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return errors.New("sendshortcut requires a non-empty payload")
	}
	return dispatch(ctx, "sendshortcut", shortcut)
}

func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = defaultNotifyColor
	}
	return dispatch(ctx, "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}

func dispatch(ctx context.Context, args ...string) error {
	_, err := hyprctl(ctx, append([]string{"--quiet", "dispatch"}, args...)...)
	return err
}

func query(ctx context.Context, target string, v any) error {
	out, err := hyprctl(ctx, "-j", target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("decode hyprctl %s json: %w", target, err)
	}
	return nil
}

func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	if detail := bytes.TrimSpace(out); len(detail) > 0 {
		return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
	}
	return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
}
