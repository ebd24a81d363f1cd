package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder decodes RIFF/WAVE PCM via go-audio/wav.
type WAVDecoder struct{}

type wavSource struct {
	rs         io.ReadSeeker
	dec        *wav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
	length     float64
	buf        *audio.IntBuffer
}

func (WAVDecoder) Decode(r io.ReadSeeker) (Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	// IsValidFile consumed the header; restart at the PCM chunk.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	dec = wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	// Length from the PCM chunk itself. The RIFF envelope size includes
	// header bytes and overstates the duration.
	length := LengthUnknown
	if bpf := int64(dec.NumChans) * int64(dec.BitDepth) / 8; bpf > 0 && dec.SampleRate > 0 {
		if frames := dec.PCMLen() / bpf; frames > 0 {
			length = float64(frames) / float64(dec.SampleRate)
		}
	}

	return &wavSource{
		rs:         r,
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
		length:     length,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: int(dec.NumChans),
				SampleRate:  int(dec.SampleRate),
			},
			Data: make([]int, 4096),
		},
	}, nil
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Length() float64 { return s.length }
func (s *wavSource) Close() error    { return nil }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	scale := float32(int64(1) << (s.bitDepth - 1))
	for i := range n {
		dst[i] = float32(s.buf.Data[i]) / scale
	}
	return n, nil
}

// Seek rewinds to the PCM chunk and skips forward by decoding. go-audio's
// decoder keeps no sample cursor we can reposition directly, so a seek is
// a restart plus a skip of seconds*rate frames.
func (s *wavSource) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	s.dec = wav.NewDecoder(s.rs)
	s.dec.ReadInfo()
	if err := s.dec.FwdToPCM(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	skip := int(seconds*float64(s.sampleRate)) * s.channels
	scratch := &audio.IntBuffer{Format: s.buf.Format, Data: make([]int, 4096)}
	for skip > 0 {
		want := len(scratch.Data)
		if skip < want {
			want = skip
		}
		scratch.Data = scratch.Data[:want]
		n, err := s.dec.PCMBuffer(scratch)
		if err != nil {
			return fmt.Errorf("wav: %w", err)
		}
		if n == 0 {
			break // seek past end lands at EOF
		}
		skip -= n
	}
	return nil
}
