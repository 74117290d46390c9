// Package audio handles device discovery, selection, and PCM capture streams.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device is one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the source capture will open. Warning is set when the
// configured input was skipped.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices queries the Pulse server for its input sources.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, newCaptureError(classify(err), "", fmt.Errorf("read default source: %w", err))
	}

	var reply pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		return nil, newCaptureError(classify(err), "", fmt.Errorf("list sources: %w", err))
	}

	devices := make([]Device, 0, len(reply))
	for _, src := range reply {
		if src != nil {
			devices = append(devices, toDevice(src, def.ID()))
		}
	}
	return devices, nil
}

func toDevice(src *pulseproto.GetSourceInfoReply, defaultID string) Device {
	return Device{
		ID:          src.SourceName,
		Description: src.Device,
		State:       sourceStateString(src.State),
		Available:   sourceAvailable(src),
		Muted:       src.Mute,
		Default:     src.SourceName == defaultID,
	}
}

// SelectDevice resolves the audio.input and audio.fallback settings against
// the live source list. Both accept "default" or a case-insensitive
// substring of a source id or description.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	sel, err := selectDeviceFromList(devices, input, fallback)
	if err != nil {
		return Selection{}, newCaptureError(KindDevice, input, err)
	}
	return sel, nil
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primary, err := resolveDevice(devices, input)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input: %w", err)
	}
	reason := unusable(primary)
	if reason == "" {
		return Selection{Device: primary}, nil
	}

	alt, err := resolveDevice(devices, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input %q is %s and audio.fallback failed: %w", primary.ID, reason, err)
	}
	if altReason := unusable(alt); altReason != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", alt.ID, altReason)
	}

	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

func resolveDevice(devices []Device, term string) (Device, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, d := range devices {
		if term == "" || term == "default" {
			if d.Default {
				return d, nil
			}
			continue
		}
		if deviceMatches(d, term) {
			return d, nil
		}
	}
	if term == "" || term == "default" {
		return Device{}, errors.New("default audio source is unavailable")
	}
	return Device{}, fmt.Errorf("%q did not match any device", term)
}

// unusable names why capture cannot open d, or returns "".
func unusable(d Device) string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	}
	return ""
}

func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// sourceAvailable reports the active port's availability. Pulse encodes
// port availability as unknown=0, no=1, yes=2.
func sourceAvailable(src *pulseproto.GetSourceInfoReply) bool {
	if src == nil {
		return false
	}
	for _, port := range src.Ports {
		if port.Name == src.ActivePortName {
			return port.Available != 1
		}
	}
	return true
}

func newClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("speakflow"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, newCaptureError(classify(err), "", fmt.Errorf("connect pulse server: %w", err))
	}
	return client, nil
}
