package engine

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

// otoBackend drives the mixer through oto's pull model: the player reads
// little-endian int16 PCM from otoRender, which invokes the render
// callback one buffer at a time and converts from float32.
//
// Used where PortAudio is unavailable; oto carries its own platform
// output layer.
type otoBackend struct {
	ctx    *oto.Context
	player *oto.Player
}

func newOtoBackend() *otoBackend {
	return &otoBackend{}
}

func (b *otoBackend) open(sampleRate float64, channels, framesPerBuffer int, render renderFunc) error {
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	b.ctx = ctx
	b.player = ctx.NewPlayer(&otoRender{
		render:  render,
		scratch: make([]float32, framesPerBuffer*channels),
		pcm:     make([]byte, 0, framesPerBuffer*channels*2),
	})
	// Keep the pull buffer to one mix tick so control changes stay
	// within the one-buffer latency contract.
	b.player.SetBufferSize(framesPerBuffer * channels * 2)
	b.player.Play()
	return nil
}

func (b *otoBackend) close() error {
	if b.player != nil {
		if err := b.player.Close(); err != nil {
			return err
		}
		b.player = nil
	}
	if b.ctx != nil {
		b.ctx.Suspend()
		b.ctx = nil
	}
	return nil
}

// otoRender adapts the push-style render callback to oto's io.Reader
// pull. Each render produces one tick of float32 frames which are
// converted to int16 bytes and handed out as the player asks for them.
type otoRender struct {
	render  renderFunc
	scratch []float32
	pcm     []byte
	off     int
}

func (r *otoRender) Read(p []byte) (int, error) {
	if r.off >= len(r.pcm) {
		r.render(r.scratch)
		r.pcm = r.pcm[:len(r.scratch)*2]
		for i, v := range r.scratch {
			// The mixer already clamped to [-1,1].
			s := int16(v * 32767)
			r.pcm[2*i] = byte(s)
			r.pcm[2*i+1] = byte(s >> 8)
		}
		r.off = 0
	}
	n := copy(p, r.pcm[r.off:])
	r.off += n
	return n, nil
}
