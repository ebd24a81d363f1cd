// SPDX-License-Identifier: MIT
package engine

import (
	"fmt"
	"io"

	"mixdown/internal/decode"
)

// Sound is a fully preloaded finite stream. The sample storage is
// materialized at load time; playback is a cursor over it, so a Sound
// never under-runs and needs no Update.
//
// Aliases share the storage slice read-only but own an independent
// Stream (cursor, state, volume/pitch/pan, processor chain). Storage
// teardown is caller-ordered: unload aliases before their source. The
// engine does not reference-count the shared slice.
type Sound struct {
	*Stream
	data  []float32
	alias bool
}

// IsReady reports whether the sound loaded successfully. Failed loads
// return a Sound backed by an inert zero-length stream: safe to pass
// around and control (as no-ops) but never audible.
func (s *Sound) IsReady() bool {
	return s != nil && s.Stream != nil && len(s.data) > 0
}

// FrameCount returns the total length of the sound in frames.
func (s *Sound) FrameCount() int {
	if s == nil || s.Stream == nil {
		return 0
	}
	return s.frameCount
}

// IsAlias reports whether this sound shares its storage with another.
func (s *Sound) IsAlias() bool {
	return s.alias
}

// inertStream backs not-ready sounds and music: a zero-length static
// stream on which every promoted control is a well-defined no-op.
func inertStream() *Stream {
	return newStaticStream(nil, 1, 32, 1, 0)
}

// LoadSound decodes the entire file at path into memory and registers a
// stream over it. On failure it returns a not-ready Sound and the error;
// the caller checks IsReady before expecting audio.
func (e *Engine) LoadSound(path string) (*Sound, error) {
	src, err := decode.Open(path)
	if err != nil {
		return &Sound{Stream: inertStream()}, err
	}
	defer src.Close()

	if c := src.Channels(); c < 1 || c > 2 {
		return &Sound{Stream: inertStream()},
			fmt.Errorf("failed to load %s: %d channels not supported (1|2)", path, c)
	}

	data, err := readAll(src)
	if err != nil {
		return &Sound{Stream: inertStream()}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return e.loadSoundData(data, src.SampleRate(), src.Channels()), nil
}

// LoadSoundFromSamples creates a Sound from caller-supplied interleaved
// float32 samples. The samples are copied; the caller keeps ownership of
// its slice.
func (e *Engine) LoadSoundFromSamples(samples []float32, sampleRate, channels int) *Sound {
	if len(samples) == 0 || channels < 1 || channels > 2 || sampleRate <= 0 {
		return &Sound{Stream: inertStream()}
	}
	data := make([]float32, len(samples))
	copy(data, samples)
	return e.loadSoundData(data, sampleRate, channels)
}

// LoadSoundAlias creates a new playback voice over src's sample storage.
// The alias owns its own cursor, state, scalars and processor chain;
// only the samples are shared. Unload aliases before the source.
func (e *Engine) LoadSoundAlias(src *Sound) *Sound {
	if !src.IsReady() {
		return &Sound{Stream: inertStream()}
	}
	alias := &Sound{
		Stream: newStaticStream(src.data, src.sampleRate, src.sampleSize, src.channels, e.frames),
		data:   src.data,
		alias:  true,
	}
	e.register(alias.Stream)
	return alias
}

// UnloadSound removes the sound from the mixer and releases its storage
// reference. Must not be called while aliases of it are still loaded;
// that ordering is the caller's obligation.
func (e *Engine) UnloadSound(s *Sound) {
	if s == nil || s.Stream == nil {
		return
	}
	e.unregister(s.Stream)
	s.data = nil
	s.static = nil
}

// UnloadSoundAlias removes an alias voice. The shared storage is left to
// the source Sound.
func (e *Engine) UnloadSoundAlias(s *Sound) {
	if s == nil || s.Stream == nil || !s.alias {
		return
	}
	e.unregister(s.Stream)
	s.data = nil
	s.static = nil
}

func (e *Engine) loadSoundData(data []float32, sampleRate, channels int) *Sound {
	s := &Sound{
		Stream: newStaticStream(data, sampleRate, 32, channels, e.frames),
		data:   data,
	}
	e.register(s.Stream)
	return s
}

// readAll drains a decode source into one interleaved sample slice.
func readAll(src decode.Source) ([]float32, error) {
	data := make([]float32, 0, 1<<16)
	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("source contains no samples")
	}
	return data, nil
}
