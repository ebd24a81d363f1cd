// SPDX-License-Identifier: MIT
package engine

import (
	"fmt"
	"sync/atomic"

	"mixdown/internal/decode"
)

// Music is a stream refilled incrementally from a decoder instead of
// being materialized at load time. The application must call Update
// periodically (at least once per buffer's worth of real time) to keep
// the ring's Empty segments refilled; missing that deadline produces
// audible under-run silence, not an error.
type Music struct {
	*Stream
	src     decode.Source
	looping atomic.Bool
	staging []float32 // one segment's worth of refill space
}

// LoadMusicStream opens path through the decoder registry and registers
// a ring-buffered stream for it. On failure it returns a not-ready Music
// and the error.
func (e *Engine) LoadMusicStream(path string) (*Music, error) {
	src, err := decode.Open(path)
	if err != nil {
		return &Music{Stream: inertStream()}, err
	}
	return e.loadMusicSource(src)
}

// LoadMusicStreamFromMemory decodes an in-memory buffer; typeHint names
// the container format ("wav", "mp3", "ogg", "flac").
func (e *Engine) LoadMusicStreamFromMemory(data []byte, typeHint string) (*Music, error) {
	src, err := decode.OpenBytes(data, typeHint)
	if err != nil {
		return &Music{Stream: inertStream()}, err
	}
	return e.loadMusicSource(src)
}

func (e *Engine) loadMusicSource(src decode.Source) (*Music, error) {
	if c := src.Channels(); c < 1 || c > 2 {
		src.Close()
		return &Music{Stream: inertStream()},
			fmt.Errorf("%d channels not supported (1|2)", c)
	}
	m := &Music{
		Stream: newStream(src.SampleRate(), 32, src.Channels(),
			e.config.Audio.StreamSegments, e.frames, e.frames),
		src:     src,
		staging: make([]float32, e.frames*src.Channels()),
	}
	e.register(m.Stream)
	return m, nil
}

// UnloadMusicStream removes the music from the mixer, waits for any mix
// that might reference it, and closes the decoder.
func (e *Engine) UnloadMusicStream(m *Music) {
	if m == nil || m.Stream == nil {
		return
	}
	e.unregister(m.Stream)
	if m.src != nil {
		m.src.Close()
		m.src = nil
	}
}

// IsReady reports whether the music stream loaded successfully.
func (m *Music) IsReady() bool {
	return m != nil && m.Stream != nil && m.src != nil
}

// SetLooping enables or disables transparent looping at end-of-stream.
func (m *Music) SetLooping(loop bool) {
	m.looping.Store(loop)
}

// Looping reports whether the music loops at end-of-stream.
func (m *Music) Looping() bool {
	return m.looping.Load()
}

// Play starts playback. From Stopped the decoder is repositioned to the
// beginning first, so a stream that finished can be replayed.
func (m *Music) Play() {
	if !m.IsReady() {
		return
	}
	if m.state.Load() == stateStopped {
		m.src.Seek(0)
		m.atEnd.Store(false)
		m.ring.reset()
		m.flushReq.Store(true)
	}
	m.Stream.Play()
}

// Stop halts playback, flushes buffered segments and repositions the
// decoder to the beginning.
func (m *Music) Stop() {
	if !m.IsReady() {
		return
	}
	m.Stream.Stop()
	m.src.Seek(0)
	m.atEnd.Store(false)
}

// Update refills Empty ring segments from the decoder, one segment's
// worth of frames per refill. At end-of-stream it either loops
// transparently (Seek 0, keep filling) or marks the stream exhausted so
// the mixer stops it once the remaining frames drain.
func (m *Music) Update() {
	if !m.IsReady() {
		return
	}

	wrapped := false
	for !m.atEnd.Load() && m.ring.processed() {
		// A decode error mid-stream is treated as end-of-stream: the
		// failure stays local, the stream just runs out.
		n, _ := m.src.ReadSamples(m.staging)
		if n > 0 {
			m.ring.push(m.staging[:n])
			wrapped = false
			continue
		}
		if m.looping.Load() && !wrapped {
			if m.src.Seek(0) == nil {
				m.framesPlayed.Store(0)
				wrapped = true
				continue
			}
		}
		m.atEnd.Store(true)
	}
}

// Seek repositions playback to seconds, clamped to [0, length] (or
// [0, inf) when the length is unknown). Buffered segments are flushed;
// playback continues from the new position on the next Update and tick.
func (m *Music) Seek(seconds float64) error {
	if !m.IsReady() {
		return nil
	}
	if seconds < 0 {
		seconds = 0
	}
	if l := m.src.Length(); l >= 0 && seconds > l {
		seconds = l
	}

	if err := m.src.Seek(seconds); err != nil {
		return err
	}
	m.atEnd.Store(false)
	m.ring.reset()
	m.flushReq.Store(true)
	m.framesPlayed.Store(uint64(seconds * float64(m.sampleRate)))
	return nil
}

// TimePlayed returns the playback position in seconds, accurate to
// within one buffer of audible output.
func (m *Music) TimePlayed() float64 {
	if m == nil || m.Stream == nil {
		return 0
	}
	return float64(m.framesPlayed.Load()) / float64(m.sampleRate)
}

// TimeLength returns the total stream length in seconds, or a negative
// value when the decoder cannot report it.
func (m *Music) TimeLength() float64 {
	if !m.IsReady() {
		return 0
	}
	return m.src.Length()
}
