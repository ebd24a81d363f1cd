// Package decode turns compressed or container audio sources into raw PCM
// frames on demand. The mixer is agnostic to which codec a Source wraps;
// it only asks for the next block of interleaved float32 samples, a seek
// to a time offset, and the total length.
package decode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LengthUnknown is returned by Source.Length for open-ended streams.
const LengthUnknown = -1.0

// Source is an open PCM stream produced by a Decoder.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns the number of float32 values written (not frames).
	// When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)
	// Seek repositions the stream to the given time offset in seconds.
	Seek(seconds float64) error
	// Length returns the total stream length in seconds, or LengthUnknown.
	Length() float64
	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from a seekable input.
type Decoder interface {
	Decode(r io.ReadSeeker) (Source, error)
}

// Registry maps format keys ("wav", "mp3", "ogg", "flac") to decoders.
type Registry struct {
	mtx    sync.Mutex
	codecs map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.codecs[strings.ToLower(format)] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	d, ok := r.codecs[strings.ToLower(format)]
	return d, ok
}

// Default is the package registry with all built-in formats registered.
var Default = NewRegistry()

func init() {
	Default.Register("wav", WAVDecoder{})
	Default.Register("mp3", MP3Decoder{})
	Default.Register("ogg", VorbisDecoder{})
	Default.Register("flac", FLACDecoder{})
}

// Open opens path and decodes it using the registry entry matching the
// file extension. The returned Source owns the file handle.
func Open(path string) (Source, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	dec, ok := Default.Get(ext)
	if !ok {
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &fileSource{Source: src, f: f}, nil
}

// OpenBytes decodes an in-memory buffer using the decoder registered for
// typeHint ("wav", "mp3", ...).
func OpenBytes(data []byte, typeHint string) (Source, error) {
	dec, ok := Default.Get(typeHint)
	if !ok {
		return nil, fmt.Errorf("unsupported audio format %q", typeHint)
	}
	src, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s data: %w", typeHint, err)
	}
	return src, nil
}

// fileSource closes the backing file together with the decoder.
type fileSource struct {
	Source
	f *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
