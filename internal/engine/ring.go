// SPDX-License-Identifier: MIT
package engine

import "sync/atomic"

// Segment states for the frame ring. Transitions:
//
//	producer: Empty -> Filling -> Full
//	consumer: Full -> Draining -> Empty
//
// The state words are the one correctness-critical data exchange between
// the application thread and the audio callback: a segment's samples are
// written before the Full store and read only after a Full load.
const (
	segEmpty uint32 = iota
	segFilling
	segFull
	segDraining
)

// frameRing is a fixed-capacity ring of PCM segments that decouples the
// rate at which a producer supplies frames from the rate at which the
// mixer drains them. The consumer never blocks: a missing Full segment
// is an under-run and renders as silence.
type frameRing struct {
	channels  int
	segFrames int       // frame capacity per segment
	data      []float32 // segments * segFrames * channels, contiguous

	states []atomic.Uint32
	valid  []atomic.Uint32 // frames actually written per segment

	readSeg  atomic.Uint32 // advanced by the consumer
	writeSeg atomic.Uint32 // advanced by the producer
}

func newFrameRing(segments, segFrames, channels int) *frameRing {
	if segments < 2 {
		segments = 2
	}
	return &frameRing{
		channels:  channels,
		segFrames: segFrames,
		data:      make([]float32, segments*segFrames*channels),
		states:    make([]atomic.Uint32, segments),
		valid:     make([]atomic.Uint32, segments),
	}
}

func (r *frameRing) segments() int { return len(r.states) }

// processed reports whether the producer's next segment is ready for a
// refill. Non-blocking; the producer polls this from the app thread.
func (r *frameRing) processed() bool {
	return r.states[r.writeSeg.Load()].Load() == segEmpty
}

// push copies up to one segment's worth of interleaved frames into the
// next Empty segment and publishes it as Full. Returns the number of
// frames accepted: 0 when no segment is Empty or samples is empty.
func (r *frameRing) push(samples []float32) int {
	frames := len(samples) / r.channels
	if frames == 0 {
		return 0
	}
	if frames > r.segFrames {
		frames = r.segFrames
	}

	seg := r.writeSeg.Load()
	if !r.states[seg].CompareAndSwap(segEmpty, segFilling) {
		return 0
	}

	base := int(seg) * r.segFrames * r.channels
	copy(r.data[base:base+frames*r.channels], samples[:frames*r.channels])
	r.valid[seg].Store(uint32(frames))

	// Publish: the Full store releases the sample writes above.
	r.states[seg].Store(segFull)
	r.writeSeg.Store((seg + 1) % uint32(r.segments()))
	return frames
}

// segment returns the consumer's current segment samples and its valid
// frame count, claiming it as Draining. ok is false on under-run.
func (r *frameRing) segment() (samples []float32, frames int, ok bool) {
	seg := r.readSeg.Load()
	switch r.states[seg].Load() {
	case segFull:
		r.states[seg].Store(segDraining)
	case segDraining:
	default:
		return nil, 0, false
	}
	frames = int(r.valid[seg].Load())
	base := int(seg) * r.segFrames * r.channels
	return r.data[base : base+frames*r.channels], frames, true
}

// release marks the consumer's current segment Empty and advances to the
// next one. Call only after segment() returned ok.
func (r *frameRing) release() {
	seg := r.readSeg.Load()
	r.states[seg].Store(segEmpty)
	r.readSeg.Store((seg + 1) % uint32(r.segments()))
}

// drained reports whether every segment is Empty, i.e. the consumer has
// played out everything the producer supplied.
func (r *frameRing) drained() bool {
	for i := range r.states {
		if r.states[i].Load() != segEmpty {
			return false
		}
	}
	return true
}

// reset returns all segments to Empty and realigns the producer index
// with the consumer index. Used when flushing buffered audio on seek or
// stop; safe against a concurrent consumer because every field is atomic
// (a racing drain at worst renders one stale segment as silence).
func (r *frameRing) reset() {
	for i := range r.states {
		r.states[i].Store(segEmpty)
		r.valid[i].Store(0)
	}
	r.writeSeg.Store(r.readSeg.Load())
}
