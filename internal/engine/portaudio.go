package engine

import (
	"fmt"
	"runtime"

	"github.com/gordonklaus/portaudio"
)

// paBackend drives the mixer from a PortAudio output stream callback.
// This is the default backend: the hardware clock invokes the callback
// once per buffer and the mixer fills it in place.
type paBackend struct {
	deviceID   int
	lowLatency bool

	stream *portaudio.Stream
	render renderFunc
}

func newPortAudioBackend(deviceID int, lowLatency bool) *paBackend {
	return &paBackend{deviceID: deviceID, lowLatency: lowLatency}
}

func (b *paBackend) open(sampleRate float64, channels, framesPerBuffer int, render renderFunc) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	device, err := outputDevice(b.deviceID)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	latency := device.DefaultHighOutputLatency
	if b.lowLatency {
		latency = device.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: framesPerBuffer,
		SampleRate:      sampleRate,
	}

	b.render = render
	stream, err := portaudio.OpenStream(params, b.processOutputStream)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	b.stream = stream

	if err := b.stream.Start(); err != nil {
		b.stream.Close()
		b.stream = nil
		portaudio.Terminate()
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	return nil
}

// processOutputStream is the hardware output callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Must complete within the buffer's playback duration
func (b *paBackend) processOutputStream(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.render(out)
}

func (b *paBackend) close() error {
	if b.stream == nil {
		return nil
	}

	// Stop blocks until pending buffers have been consumed, so no
	// callback runs after it returns.
	if err := b.stream.Stop(); err != nil {
		return err
	}
	if err := b.stream.Close(); err != nil {
		return err
	}
	b.stream = nil

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}
