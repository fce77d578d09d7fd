package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// m4aStream plays the AAC or ALAC track of an MP4 container (.m4b audiobooks).
type m4aStream struct {
	box      *m4a.Reader
	closer   io.Closer
	rate     int
	channels int
	total    int
	next     int // next container sample to decode
	err      error

	aac  *faad2.Decoder
	alac *alac.Alac
	bits int

	pending [][2]float64
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	box, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	s := &m4aStream{
		box:      box,
		closer:   rc,
		rate:     int(box.SampleRate()),
		channels: int(box.Channels()),
		bits:     int(box.SampleSize()),
	}
	s.total = int(box.Duration().Seconds() * float64(s.rate))

	format := beep.Format{
		SampleRate:  beep.SampleRate(s.rate),
		NumChannels: 2,
		Precision:   2,
	}

	switch box.Codec() {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(ctx, box.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, err
		}
		s.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  s.rate,
			SampleSize:  s.bits,
			NumChannels: s.channels,
			FrameSize:   4096,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		s.alac = dec
		if s.bits == 24 {
			format.Precision = 3
		}
	case m4a.CodecUnknown:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}

	return s, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	n := 0
	for n < len(samples) {
		if len(s.pending) > 0 {
			c := copy(samples[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.next >= s.box.SampleCount() {
			break
		}
		if err := s.decodeNext(); err != nil {
			s.err = err
			break
		}
	}
	return n, n > 0
}

func (s *m4aStream) decodeNext() error {
	data, err := s.box.ReadSample(s.next)
	if err != nil {
		return err
	}
	s.next++

	switch {
	case s.aac != nil:
		pcm, err := s.aac.Decode(context.Background(), data)
		if err != nil {
			return err
		}
		s.pending = pcm16ToFrames(pcm, s.channels)
	case s.alac != nil:
		raw := s.alac.Decode(data)
		if s.bits == 24 {
			s.pending = pcm24ToFrames(raw, s.channels)
		} else {
			s.pending = pcm16LEToFrames(raw, s.channels)
		}
	default:
		return errors.New("m4a: no decoder")
	}
	return nil
}

func (s *m4aStream) Err() error { return s.err }

func (s *m4aStream) Len() int { return s.total }

func (s *m4aStream) Position() int {
	return int(s.box.SampleTime(s.next).Seconds() * float64(s.rate))
}

func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.total)
	pos := time.Duration(float64(p) / float64(s.rate) * float64(time.Second))
	s.next = s.box.SeekToTime(pos)
	s.pending = nil
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	if s.aac != nil {
		s.aac.Close(context.Background())
	}
	return s.closer.Close()
}

// pcm16ToFrames converts interleaved int16 samples; mono is duplicated.
func pcm16ToFrames(pcm []int16, channels int) [][2]float64 {
	channels = max(channels, 1)
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		l := float64(pcm[i*channels]) / 32768
		r := l
		if channels > 1 {
			r = float64(pcm[i*channels+1]) / 32768
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

// pcm16LEToFrames converts interleaved little-endian 16-bit bytes.
func pcm16LEToFrames(data []byte, channels int) [][2]float64 {
	channels = max(channels, 1)
	stride := 2 * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		off := i * stride
		l := float64(int16(uint16(data[off])|uint16(data[off+1])<<8)) / 32768 //nolint:gosec // PCM sample
		r := l
		if channels > 1 {
			r = float64(int16(uint16(data[off+2])|uint16(data[off+3])<<8)) / 32768 //nolint:gosec // PCM sample
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

// pcm24ToFrames converts interleaved little-endian 24-bit bytes.
func pcm24ToFrames(data []byte, channels int) [][2]float64 {
	channels = max(channels, 1)
	stride := 3 * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		off := i * stride
		l := float64(int24(data[off:])) / (1 << 23)
		r := l
		if channels > 1 {
			r = float64(int24(data[off+3:])) / (1 << 23)
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF
	}
	return v
}
