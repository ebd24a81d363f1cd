package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC via mewkiz/flac. The library hands back whole
// blocks of per-channel subframes; ReadSamples interleaves them and keeps
// the remainder buffered between calls.
type FLACDecoder struct{}

type flacSource struct {
	stream     *flac.Stream
	sampleRate int
	channels   int
	scale      float32
	length     float64

	pending []float32 // interleaved leftover from the last parsed frame
	eof     bool
}

func (FLACDecoder) Decode(r io.ReadSeeker) (Source, error) {
	stream, err := flac.NewSeek(r)
	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}

	info := stream.Info
	length := LengthUnknown
	if info.NSamples > 0 {
		length = float64(info.NSamples) / float64(info.SampleRate)
	}

	return &flacSource{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		scale:      float32(int64(1) << (info.BitsPerSample - 1)),
		length:     length,
	}, nil
}

func (s *flacSource) SampleRate() int { return s.sampleRate }
func (s *flacSource) Channels() int   { return s.channels }
func (s *flacSource) Length() float64 { return s.length }
func (s *flacSource) Close() error    { return s.stream.Close() }

func (s *flacSource) ReadSamples(dst []float32) (int, error) {
	written := 0
	for written < len(dst) {
		if len(s.pending) == 0 {
			if s.eof {
				break
			}
			if err := s.parseNext(); err != nil {
				if err == io.EOF {
					s.eof = true
					continue
				}
				return written, fmt.Errorf("flac: %w", err)
			}
		}
		n := copy(dst[written:], s.pending)
		s.pending = s.pending[n:]
		written += n
	}
	if written == 0 && s.eof {
		return 0, io.EOF
	}
	return written, nil
}

func (s *flacSource) parseNext() error {
	f, err := s.stream.ParseNext()
	if err != nil {
		return err
	}

	blockSize := len(f.Subframes[0].Samples)
	need := blockSize * s.channels
	if cap(s.pending) < need {
		s.pending = make([]float32, need)
	}
	s.pending = s.pending[:need]

	for ch, sub := range f.Subframes {
		for i, sample := range sub.Samples {
			s.pending[i*s.channels+ch] = float32(sample) / s.scale
		}
	}
	return nil
}

func (s *flacSource) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	pos := uint64(seconds * float64(s.sampleRate))
	if total := s.stream.Info.NSamples; total > 0 && pos > total {
		pos = total
	}
	if _, err := s.stream.Seek(pos); err != nil {
		return fmt.Errorf("flac: %w", err)
	}
	s.pending = s.pending[:0]
	s.eof = false
	return nil
}
