package decode

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MPEG layer-3 via hajimehoshi/go-mp3, which emits
// 16-bit little-endian stereo PCM regardless of the source layout.
type MP3Decoder struct{}

const mp3BytesPerFrame = 4 // 2 channels x int16

type mp3Source struct {
	dec        *gomp3.Decoder
	sampleRate int
	buf        []byte
}

func (MP3Decoder) Decode(r io.ReadSeeker) (Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &mp3Source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}

func (s *mp3Source) SampleRate() int { return s.sampleRate }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Close() error    { return nil }

func (s *mp3Source) Length() float64 {
	b := s.dec.Length() // total PCM bytes, 0 when the source is not seekable
	if b <= 0 {
		return LengthUnknown
	}
	return float64(b/mp3BytesPerFrame) / float64(s.sampleRate)
}

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := io.ReadFull(s.dec, s.buf)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("mp3: %w", err)
		}
		return 0, nil
	}

	samples := n / 2
	for i := range samples {
		low := uint16(s.buf[2*i])
		high := uint16(s.buf[2*i+1])
		dst[i] = float32(int16(low|(high<<8))) / 32768.0
	}
	return samples, nil
}

func (s *mp3Source) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	off := int64(seconds*float64(s.sampleRate)) * mp3BytesPerFrame
	if total := s.dec.Length(); total > 0 && off > total {
		off = total
	}
	if _, err := s.dec.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("mp3: %w", err)
	}
	return nil
}
