package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis via jfreymuth/oggvorbis, which already
// produces interleaved float32 samples.
type VorbisDecoder struct{}

type vorbisSource struct {
	dec        *oggvorbis.Reader
	sampleRate int
	channels   int
}

func (VorbisDecoder) Decode(r io.ReadSeeker) (Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return &vorbisSource{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}

func (s *vorbisSource) SampleRate() int { return s.sampleRate }
func (s *vorbisSource) Channels() int   { return s.channels }
func (s *vorbisSource) Close() error    { return nil }

func (s *vorbisSource) Length() float64 {
	frames := s.dec.Length() // per-channel sample count, 0 when unknown
	if frames <= 0 {
		return LengthUnknown
	}
	return float64(frames) / float64(s.sampleRate)
}

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	n, err := s.dec.Read(dst)
	if n == 0 {
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("vorbis: %w", err)
		}
		return 0, nil
	}
	return n, nil
}

func (s *vorbisSource) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	pos := int64(seconds * float64(s.sampleRate))
	if total := s.dec.Length(); total > 0 && pos > total {
		pos = total
	}
	if err := s.dec.SetPosition(pos); err != nil {
		return fmt.Errorf("vorbis: %w", err)
	}
	return nil
}
