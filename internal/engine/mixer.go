// SPDX-License-Identifier: MIT
package engine

import "math"

// mix is the core of every tick: it renders each playing stream into its
// scratch buffer, runs the per-stream chain, applies volume and pan while
// accumulating into out, then runs the mixed chain, master volume and the
// final clamp.
//
// Performance Critical (Hot Path):
// - Runs on the audio callback thread
// - Uses pre-allocated buffers only, no allocations
// - Never blocks: missing data renders as silence
func (e *Engine) mix(out []float32) {
	e.mixSeq.Add(1) // odd: a mix is in flight
	defer e.mixSeq.Add(1)

	for i := range out {
		out[i] = 0
	}
	frames := len(out) / e.channels

	var streams []*Stream
	if l := e.streams.Load(); l != nil {
		streams = *l
	}

	for _, s := range streams {
		if !s.IsPlaying() {
			continue
		}

		step := float64(s.Pitch()) * float64(s.sampleRate) / e.sampleRate
		n := s.render(frames, step)
		if n > 0 {
			s.procs.run(s.scratch[:n*s.channels], n)
			e.accumulate(out, s, n)
		}

		// A non-looping producer that reported end-of-stream stops once
		// its buffered frames are fully drained.
		if s.ring != nil && s.atEnd.Load() && s.ring.drained() {
			s.state.Store(stateStopped)
		}
	}

	e.mixedProcs.run(out, frames)

	master := e.MasterVolume()
	for i, v := range out {
		v *= master
		// Clip to the representable range; never wrap.
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}

	e.record(out, frames)
}

// render fills s.scratch with up to frames stream-format frames, one per
// device frame, stepping the source cursor by step (pitch x rate ratio).
// Returns the number of frames rendered; the remainder is an under-run.
func (s *Stream) render(frames int, step float64) int {
	if s.ring != nil {
		return s.renderRing(frames, step)
	}
	return s.renderStatic(frames, step)
}

func (s *Stream) renderStatic(frames int, step float64) int {
	pos := math.Float64frombits(s.cursor.Load())
	n := 0
	for n < frames {
		idx := int(pos)
		if idx >= s.frameCount {
			break
		}
		base := idx * s.channels
		copy(s.scratch[n*s.channels:(n+1)*s.channels], s.static[base:base+s.channels])
		pos += step
		n++
	}

	if int(pos) >= s.frameCount {
		// Finite stream exhausted: cooperative transition to Stopped.
		s.state.Store(stateStopped)
		s.cursor.Store(0)
	} else {
		s.cursor.Store(math.Float64bits(pos))
	}
	s.framesPlayed.Store(uint64(pos))
	return n
}

func (s *Stream) renderRing(frames int, step float64) int {
	// The ring itself is flushed on the producer side; the callback only
	// has to realign its fractional read offset.
	if s.flushReq.CompareAndSwap(true, false) {
		s.segPos = 0
	}

	pos := s.segPos
	n := 0
	for n < frames {
		samples, valid, ok := s.ring.segment()
		if !ok {
			break // under-run: remainder renders as silence
		}
		idx := int(pos)
		if idx >= valid {
			s.ring.release()
			pos -= float64(valid)
			continue
		}
		base := idx * s.channels
		copy(s.scratch[n*s.channels:(n+1)*s.channels], samples[base:base+s.channels])
		pos += step
		n++
	}
	s.segPos = pos

	// Advance the played-frame counter by the exact source advance,
	// carrying the fractional remainder across ticks.
	s.playedFrac += float64(n) * step
	if whole := math.Floor(s.playedFrac); whole > 0 {
		s.framesPlayed.Add(uint64(whole))
		s.playedFrac -= whole
	}
	return n
}

// accumulate sums n frames of s.scratch into out, applying volume and the
// linear pan law and mapping stream channels onto device channels.
func (e *Engine) accumulate(out []float32, s *Stream, n int) {
	vol := s.Volume()

	if e.channels == 1 {
		// Mono device: pan has no spatial meaning, volume only.
		if s.channels == 1 {
			for i := 0; i < n; i++ {
				out[i] += s.scratch[i] * vol
			}
		} else {
			for i := 0; i < n; i++ {
				out[i] += (s.scratch[2*i] + s.scratch[2*i+1]) * 0.5 * vol
			}
		}
		return
	}

	lg, rg := panGains(s.Pan())
	lg *= vol
	rg *= vol

	if s.channels == 1 {
		for i := 0; i < n; i++ {
			v := s.scratch[i]
			out[2*i] += v * lg
			out[2*i+1] += v * rg
		}
	} else {
		for i := 0; i < n; i++ {
			out[2*i] += s.scratch[2*i] * lg
			out[2*i+1] += s.scratch[2*i+1] * rg
		}
	}
}

// panGains implements the linear pan law: center (0.5) keeps both
// channels at unity; moving off center attenuates the far channel
// linearly down to zero at the extremes.
func panGains(pan float32) (left, right float32) {
	left = 2 * (1 - pan)
	if left > 1 {
		left = 1
	}
	right = 2 * pan
	if right > 1 {
		right = 1
	}
	return left, right
}
