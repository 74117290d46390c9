package audio

import (
	"context"
	"errors"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestSelectDeviceFromList(t *testing.T) {
	elgato := Device{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true}
	sony := Device{ID: "bluez_input.sony", Description: "Sony WH-1000XM6", Available: true}
	muted := func(d Device) Device {
		d.Muted = true
		return d
	}
	unplugged := func(d Device) Device {
		d.Available = false
		return d
	}

	tests := []struct {
		name     string
		devices  []Device
		input    string
		fallback string
		wantID   string
		wantWarn string
		wantErr  string
	}{
		{name: "default input", devices: []Device{elgato, sony}, input: "default", fallback: "default", wantID: elgato.ID},
		{name: "empty input means default", devices: []Device{sony, elgato}, wantID: elgato.ID},
		{name: "match by description", devices: []Device{elgato, sony}, input: "WH-1000", fallback: "default", wantID: sony.ID},
		{name: "muted input uses fallback", devices: []Device{muted(elgato), sony}, input: "elgato", fallback: "sony", wantID: sony.ID, wantWarn: "muted"},
		{name: "unavailable input uses default", devices: []Device{elgato, unplugged(sony)}, input: "sony", fallback: "default", wantID: elgato.ID, wantWarn: "unavailable"},
		{name: "default and fallback both muted", devices: []Device{muted(elgato)}, input: "default", fallback: "default", wantErr: "muted"},
		{name: "unknown input", devices: []Device{elgato}, input: "missing", fallback: "default", wantErr: "did not match"},
		{name: "unknown fallback", devices: []Device{muted(elgato)}, input: "elgato", fallback: "missing", wantErr: "audio.fallback failed"},
		{name: "no default source", devices: []Device{sony}, input: "default", wantErr: "default audio source is unavailable"},
		{name: "no devices", wantErr: "no audio input devices"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := selectDeviceFromList(tc.devices, tc.input, tc.fallback)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantID, sel.Device.ID)
			if tc.wantWarn == "" {
				require.Empty(t, sel.Warning)
				require.False(t, sel.Fallback)
			} else {
				require.Contains(t, sel.Warning, tc.wantWarn)
				require.True(t, sel.Fallback)
			}
		})
	}
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-elgato", Description: "Elgato Wave 3 Mono"}
	require.True(t, deviceMatches(dev, "elgato"))
	require.True(t, deviceMatches(dev, "wave 3"))
	require.False(t, deviceMatches(dev, "missing"))
	require.False(t, deviceMatches(dev, ""))
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
}

func TestSelectDeviceFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := SelectDevice(context.Background(), "default", "default")
	require.Error(t, err)

	capErr, ok := IsCaptureError(err)
	require.True(t, ok)
	require.Equal(t, KindUnavailable, capErr.Kind)
}

func TestStartCaptureFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := StartCapture(context.Background(), Device{ID: "mic"})
	require.Error(t, err)

	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr))
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{})) // no ports => available

	available := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, available, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(available))

	unknown := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, unknown, []sourcePort{{name: "line", available: 1}, {name: "mic", available: 0}})
	require.True(t, sourceAvailable(unknown))

	notAvailable := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, notAvailable, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(notAvailable))
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceType := reflect.TypeOf(reply.Ports)
	sliceValue := reflect.MakeSlice(sliceType, len(ports), len(ports))

	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}

	replyValue := reflect.ValueOf(reply).Elem().FieldByName("Ports")
	replyValue.Set(sliceValue)
}
