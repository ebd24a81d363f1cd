// SPDX-License-Identifier: MIT
/*
Package engine implements a real-time audio mixing engine:
- Hardware output via PortAudio or oto with a non-blocking mix callback
- Streams with segmented ring buffers and atomic state flags
- Sounds with zero-copy aliasing over shared sample storage
- Music streamed incrementally from a decoder
- Per-stream and mixed processor chains swapped copy-on-write

Thread Safety:
- The mix callback never blocks, allocates or takes application locks
- Segment states, playback state and the control scalars are atomics
- Unload waits for any in-flight mix before releasing a stream
*/
package engine

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"mixdown/internal/config"
	"mixdown/internal/log"
)

// Engine owns the hardware output device and the mixer. It is the
// process-wide handle for the audio subsystem: create it once, Init it,
// unload every stream before Close.
type Engine struct {
	config *config.Config

	sampleRate float64
	channels   int
	frames     int // frames per mix tick

	backend backend
	ready   atomic.Bool

	masterVolume atomic.Uint32 // float32 bits, [0,1]

	// streams is a copy-on-write snapshot of every loaded stream; the
	// callback iterates it lock free. streamsMtx serializes mutations.
	streamsMtx sync.Mutex
	streams    atomic.Pointer[[]*Stream]

	mixedProcs processorChain

	// mixSeq is odd while a mix callback is in flight. Unload and Close
	// use it to wait out the callback without the callback ever waiting
	// on them.
	mixSeq atomic.Uint64

	// Recording state and buffers.
	recording  atomic.Int32
	recFile    *os.File
	recEncoder *wav.Encoder
	recBuf     *audio.IntBuffer
}

// NewEngine creates an engine from the given configuration. No hardware
// is touched until Init.
func NewEngine(cfg *config.Config) *Engine {
	e := &Engine{
		config:     cfg,
		sampleRate: cfg.Audio.SampleRate,
		channels:   cfg.Audio.Channels,
		frames:     cfg.Audio.FramesPerBuffer,
	}
	e.SetMasterVolume(float32(cfg.Audio.MasterVolume))
	return e
}

// Init acquires the output device and starts the periodic mix callback.
// On failure the engine stays in a not-ready state: every stream
// operation remains valid, nothing is audible, nothing crashes.
func (e *Engine) Init() error {
	if e.ready.Load() {
		return nil
	}

	switch e.config.Audio.Backend {
	case "oto":
		e.backend = newOtoBackend()
	default:
		e.backend = newPortAudioBackend(e.config.Audio.OutputDevice, e.config.Audio.LowLatency)
	}

	if err := e.backend.open(e.sampleRate, e.channels, e.frames, e.mix); err != nil {
		e.backend = nil
		log.Warnf("audio device unavailable, continuing silent: %v", err)
		return fmt.Errorf("failed to open audio device: %w", err)
	}

	e.ready.Store(true)
	log.Infof("audio device ready: %.0f Hz, %d channels, %d frames/buffer (%s)",
		e.sampleRate, e.channels, e.frames, e.config.Audio.Backend)
	return nil
}

// IsReady reports whether the output device was acquired and the mix
// callback is running.
func (e *Engine) IsReady() bool {
	return e.ready.Load()
}

// Close stops the periodic mix callback and releases the device. It
// blocks until any in-flight mix has completed; no mix runs after Close
// returns, so subsequent Unloads are safe.
func (e *Engine) Close() error {
	if e.recording.Load() == 1 {
		if err := e.StopRecording(); err != nil {
			log.Errorf("stopping mix recording: %v", err)
		}
	}

	if !e.ready.Swap(false) {
		return nil
	}

	err := e.backend.close()
	e.waitMixIdle()
	e.backend = nil
	if err != nil {
		return fmt.Errorf("failed to close audio device: %w", err)
	}
	return nil
}

// SetMasterVolume sets the final output volume, clamped to [0,1]. It is
// applied after the mixed processor chain.
func (e *Engine) SetMasterVolume(v float32) {
	e.masterVolume.Store(math.Float32bits(clamp01(v)))
}

// MasterVolume returns the current master volume.
func (e *Engine) MasterVolume() float32 {
	return math.Float32frombits(e.masterVolume.Load())
}

// AttachMixedProcessor appends a processor that runs over the summed
// output of all streams, before master volume.
func (e *Engine) AttachMixedProcessor(p Processor) {
	e.mixedProcs.attach(p)
}

// DetachMixedProcessor removes a mixed processor by identity.
func (e *Engine) DetachMixedProcessor(p Processor) {
	e.mixedProcs.detach(p)
}

// LoadStream creates a raw audio stream with the given format and
// registers it with the mixer. The caller feeds it via Update. Channel
// counts outside the mono|stereo range the mixer handles clamp to it.
func (e *Engine) LoadStream(sampleRate, sampleSize, channels int) *Stream {
	if channels < 1 {
		channels = 1
	} else if channels > 2 {
		channels = 2
	}
	s := newStream(sampleRate, sampleSize, channels,
		e.config.Audio.StreamSegments, e.frames, e.frames)
	e.register(s)
	return s
}

// UnloadStream removes the stream from the mixer and waits for any mix
// that might still reference it.
func (e *Engine) UnloadStream(s *Stream) {
	if s == nil {
		return
	}
	e.unregister(s)
}

func (e *Engine) register(s *Stream) {
	e.streamsMtx.Lock()
	defer e.streamsMtx.Unlock()

	var cur []*Stream
	if l := e.streams.Load(); l != nil {
		cur = *l
	}
	next := make([]*Stream, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = s
	e.streams.Store(&next)
}

func (e *Engine) unregister(s *Stream) {
	e.streamsMtx.Lock()
	l := e.streams.Load()
	if l != nil {
		cur := *l
		next := make([]*Stream, 0, len(cur))
		for _, t := range cur {
			if t != s {
				next = append(next, t)
			}
		}
		e.streams.Store(&next)
	}
	e.streamsMtx.Unlock()

	// The swapped snapshot stops future ticks from seeing s; wait out
	// the tick that may have loaded the old snapshot.
	e.waitMixIdle()
}

// waitMixIdle returns once no mix callback holds a snapshot taken before
// the call. The callback increments mixSeq on entry (odd) and exit
// (even) and loads the stream snapshot only after the entry increment.
func (e *Engine) waitMixIdle() {
	seq := e.mixSeq.Load()
	if seq%2 == 0 {
		return
	}
	for e.mixSeq.Load() == seq {
		runtime.Gosched()
	}
}

// StreamCount returns the number of currently loaded streams.
func (e *Engine) StreamCount() int {
	l := e.streams.Load()
	if l == nil {
		return 0
	}
	return len(*l)
}

// MixedProcessorCount returns the number of attached mixed processors.
func (e *Engine) MixedProcessorCount() int {
	return e.mixedProcs.size()
}
