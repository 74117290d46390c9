package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	chunkSizeBytes = 640 // 20ms @ 16kHz mono s16
)

// Capture records one selected Pulse source into memory and tracks its level.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream
	meter  LevelMeter

	stopCh chan struct{}

	mu      sync.Mutex
	rawPCM  []byte
	stopped bool
	result  Buffer

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartCapture creates and starts a 16kHz mono s16 record stream.
// The stream is stopped when ctx is done.
func StartCapture(ctx context.Context, selected Device) (*Capture, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, newCaptureError(KindDevice, selected.ID, fmt.Errorf("resolve source: %w", err))
	}

	capture := &Capture{
		device: selected,
		client: client,
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("speakflow dictation"),
	)
	if err != nil {
		capture.Stop()
		return nil, newCaptureError(classify(err), selected.ID, fmt.Errorf("create pulse record stream: %w", err))
	}

	capture.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			capture.Stop()
		case <-capture.stopCh:
		}
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// Level returns the smoothed input level in 0..1.
func (c *Capture) Level() float64 {
	return c.meter.Level()
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Stop halts the stream and returns the finalized buffer. Later calls return
// the same buffer.
func (c *Capture) Stop() Buffer {
	c.mu.Lock()
	if c.stopped {
		result := c.result
		c.mu.Unlock()
		return result
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = BufferFromPCM(c.rawPCM)
	c.rawPCM = nil
	return c.result
}

// onPCM receives raw Pulse frames, appends them, and updates the level meter.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as c.stopped to avoid Add/Wait races.
	c.inflight.Add(1)
	c.rawPCM = append(c.rawPCM, buffer...)
	c.mu.Unlock()
	defer c.inflight.Done()

	c.bytes.Add(int64(len(buffer)))
	c.meter.Observe(decodeSamples(buffer))

	return len(buffer), nil
}

func decodeSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
