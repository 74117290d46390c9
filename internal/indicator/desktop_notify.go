package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// desktopNotify sends a freedesktop notification over DBus via busctl.
// It returns the notification ID assigned by the server.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	args := append(notificationsCall("Notify"),
		"susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		"",
		summary,
		"",
		"0",
		"0",
		strconv.Itoa(timeoutMS),
	)

	out, err := runBusctl(ctx, args)
	if err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", strings.TrimSpace(string(out)))
	}

	value, parseErr := strconv.ParseUint(fields[1], 10, 32)
	if parseErr != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], parseErr)
	}
	return uint32(value), nil
}

// desktopDismiss requests explicit close by notification ID.
func desktopDismiss(ctx context.Context, id uint32) error {
	args := append(notificationsCall("CloseNotification"), "u", strconv.FormatUint(uint64(id), 10))
	if _, err := runBusctl(ctx, args); err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", err)
	}
	return nil
}

func notificationsCall(method string) []string {
	return []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		method,
	}
}

func runBusctl(ctx context.Context, args []string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
			return nil, fmt.Errorf("%w (%s)", err, trimmed)
		}
		return nil, err
	}
	return out, nil
}
