// SPDX-License-Identifier: MIT
package engine

import (
	"math"
	"sync/atomic"
)

// Playback states. Transitions are cooperative: the mixer observes a
// state change no later than the tick after it was made, so the audible
// effect can lag the call by up to one buffer.
const (
	stateStopped uint32 = iota
	statePlaying
	statePaused
)

// Stream is the unit of playback identity: a fixed sample format, a frame
// source (ring buffer or preloaded storage), playback state, the
// volume/pitch/pan scalars and a per-stream processor chain.
//
// Streams are driven from two contexts. The application thread creates
// them, pushes frames and issues Play/Stop/Pause/Resume/Set*. The audio
// callback drains frames and advances the cursor. The scalars are plain
// atomics with last-write-wins semantics; they are continuous controls,
// not correctness-critical state.
type Stream struct {
	sampleRate int
	sampleSize int
	channels   int

	state  atomic.Uint32
	volume atomic.Uint32 // float32 bits, [0,1]
	pitch  atomic.Uint32 // float32 bits, > 0
	pan    atomic.Uint32 // float32 bits, [0,1], 0.5 = center

	procs processorChain

	// Exactly one of ring/static backs the stream. static is shared
	// between a Sound and its aliases; the cursor lives here.
	ring       *frameRing
	static     []float32
	frameCount int

	cursor   atomic.Uint64 // float64 bits, static frame position
	segPos   float64       // fractional offset in the ring's read segment (callback-owned)
	flushReq atomic.Bool   // ring was flushed; callback zeroes segPos at next render
	atEnd    atomic.Bool   // producer exhausted; stop once drained

	framesPlayed atomic.Uint64 // source frames consumed since start/seek
	playedFrac   float64       // sub-frame remainder of the above (callback-owned)

	scratch []float32 // per-tick mixer workspace, frames*channels
}

func newStream(sampleRate, sampleSize, channels, segments, segFrames, mixFrames int) *Stream {
	s := &Stream{
		sampleRate: sampleRate,
		sampleSize: sampleSize,
		channels:   channels,
		ring:       newFrameRing(segments, segFrames, channels),
		scratch:    make([]float32, mixFrames*channels),
	}
	s.initControls()
	return s
}

func newStaticStream(data []float32, sampleRate, sampleSize, channels, mixFrames int) *Stream {
	s := &Stream{
		sampleRate: sampleRate,
		sampleSize: sampleSize,
		channels:   channels,
		static:     data,
		frameCount: len(data) / channels,
		scratch:    make([]float32, mixFrames*channels),
	}
	s.initControls()
	return s
}

func (s *Stream) initControls() {
	s.volume.Store(math.Float32bits(1))
	s.pitch.Store(math.Float32bits(1))
	s.pan.Store(math.Float32bits(0.5))
}

// SampleRate returns the stream's sample rate in Hz.
func (s *Stream) SampleRate() int { return s.sampleRate }

// SampleSize returns the source sample width in bits.
func (s *Stream) SampleSize() int { return s.sampleSize }

// Channels returns the stream's channel count.
func (s *Stream) Channels() int { return s.channels }

// Play starts playback. From Stopped the cursor resets to frame 0; from
// Paused the position is preserved. A static stream with no frames stays
// Stopped, so not-ready sounds never report playing.
func (s *Stream) Play() {
	if s.ring == nil && s.frameCount == 0 {
		return
	}
	if s.state.Load() == stateStopped {
		s.cursor.Store(0)
		s.framesPlayed.Store(0)
	}
	s.state.Store(statePlaying)
}

// Stop halts playback from any state and resets the cursor to frame 0.
func (s *Stream) Stop() {
	s.state.Store(stateStopped)
	s.cursor.Store(0)
	s.framesPlayed.Store(0)
	if s.ring != nil {
		s.ring.reset()
		s.flushReq.Store(true)
	}
}

// Pause suspends playback, preserving the cursor. No-op unless Playing.
func (s *Stream) Pause() {
	s.state.CompareAndSwap(statePlaying, statePaused)
}

// Resume continues playback after a Pause. No-op unless Paused.
func (s *Stream) Resume() {
	s.state.CompareAndSwap(statePaused, statePlaying)
}

// IsPlaying reports whether the stream is currently in the Playing state.
func (s *Stream) IsPlaying() bool {
	return s.state.Load() == statePlaying
}

// SetVolume sets the stream volume, clamped to [0,1].
func (s *Stream) SetVolume(v float32) {
	s.volume.Store(math.Float32bits(clamp01(v)))
}

// Volume returns the current stream volume.
func (s *Stream) Volume() float32 {
	return math.Float32frombits(s.volume.Load())
}

// SetPitch sets the playback rate multiplier. Values <= 0 clamp to the
// smallest usable rate rather than failing.
func (s *Stream) SetPitch(p float32) {
	if p <= 0 {
		p = 0.001
	}
	s.pitch.Store(math.Float32bits(p))
}

// Pitch returns the current playback rate multiplier.
func (s *Stream) Pitch() float32 {
	return math.Float32frombits(s.pitch.Load())
}

// SetPan sets the stereo position, clamped to [0,1] with 0.5 center.
// The pan law is a linear split: the off-center channel attenuates
// linearly while the near channel stays at unity.
func (s *Stream) SetPan(p float32) {
	s.pan.Store(math.Float32bits(clamp01(p)))
}

// Pan returns the current stereo position.
func (s *Stream) Pan() float32 {
	return math.Float32frombits(s.pan.Load())
}

// AttachProcessor appends a sample transform to the stream's chain. It
// runs on the callback thread after pitch stepping and before volume and
// pan are applied.
func (s *Stream) AttachProcessor(p Processor) {
	s.procs.attach(p)
}

// DetachProcessor removes a previously attached processor by identity.
func (s *Stream) DetachProcessor(p Processor) {
	s.procs.detach(p)
}

// Update pushes interleaved float32 frames into the stream's ring,
// filling at most one segment. Returns the number of frames accepted;
// 0 when no segment currently needs a refill.
func (s *Stream) Update(samples []float32) int {
	if s.ring == nil {
		return 0
	}
	return s.ring.push(samples)
}

// IsProcessed reports whether the stream has a segment waiting for a
// refill. Non-blocking.
func (s *Stream) IsProcessed() bool {
	return s.ring != nil && s.ring.processed()
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
