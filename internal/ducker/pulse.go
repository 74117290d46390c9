package ducker

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// PulseMixer adjusts the default sink through PulseAudio (or pipewire-pulse)
// protocol requests. Each call opens a short-lived connection.
type PulseMixer struct{}

func (PulseMixer) Volume(ctx context.Context) (Volume, error) {
	var out Volume
	err := withDefaultSink(ctx, func(client *pulse.Client, sink string) error {
		var reply proto.GetSinkInfoReply
		if err := client.RawRequest(&proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: sink}, &reply); err != nil {
			return fmt.Errorf("get sink info %q: %w", sink, err)
		}
		out = Volume(append([]uint32(nil), reply.ChannelVolumes...))
		return nil
	})
	return out, err
}

func (PulseMixer) SetVolume(ctx context.Context, v Volume) error {
	if len(v) == 0 {
		return fmt.Errorf("volume has no channels")
	}
	return withDefaultSink(ctx, func(client *pulse.Client, sink string) error {
		req := &proto.SetSinkVolume{
			SinkIndex:      proto.Undefined,
			SinkName:       sink,
			ChannelVolumes: proto.ChannelVolumes(append([]uint32(nil), v...)),
		}
		if err := client.RawRequest(req, nil); err != nil {
			return fmt.Errorf("set sink volume %q: %w", sink, err)
		}
		return nil
	})
}

func withDefaultSink(ctx context.Context, fn func(*pulse.Client, string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := pulse.NewClient(pulse.ClientApplicationName("speakflow"))
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	var info proto.GetServerInfoReply
	if err := client.RawRequest(&proto.GetServerInfo{}, &info); err != nil {
		return fmt.Errorf("get server info: %w", err)
	}
	if info.DefaultSinkName == "" {
		return fmt.Errorf("no default sink")
	}
	return fn(client, info.DefaultSinkName)
}
