package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	opusSampleRate = 48000
	// opusPreroll is decoded and dropped before a seek target so the
	// decoder converges, 80ms at 48kHz.
	opusPreroll = 3840
	// oggMaxFrame bounds the samples per channel of one decoded packet.
	oggMaxFrame = 8192
)

var (
	errOggCodec    = errors.New("ogg: neither Opus nor Vorbis")
	errOpusHead    = errors.New("opus: invalid OpusHead")
	errVorbisIdent = errors.New("vorbis: invalid identification header")
)

// oggCodec is the packet decoder behind an Ogg stream.
type oggCodec interface {
	sampleRate() int
	channels() int
	preSkip() int
	preroll() int
	// header consumes one header packet after the identification header
	// and reports whether decoding can start.
	header(pkt []byte) (bool, error)
	decode(pkt []byte, pcm []float32) (int, error)
	reset()
}

func newOggCodec(ident []byte) (oggCodec, error) {
	switch {
	case len(ident) >= 8 && string(ident[:8]) == "OpusHead":
		return newOpusCodec(ident)
	case len(ident) >= 7 && ident[0] == 0x01 && string(ident[1:7]) == "vorbis":
		return newVorbisCodec(ident)
	default:
		return nil, errOggCodec
	}
}

type opusCodec struct {
	dec  *opus.Decoder
	ch   int
	skip int
}

func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < 19 || head[8] != 1 {
		return nil, errOpusHead
	}
	ch := int(head[9])
	dec, err := opus.NewDecoder(opusSampleRate, ch)
	if err != nil {
		return nil, fmt.Errorf("opus: %w", err)
	}
	return &opusCodec{dec: dec, ch: ch, skip: int(binary.LittleEndian.Uint16(head[10:12]))}, nil
}

func (c *opusCodec) sampleRate() int { return opusSampleRate }
func (c *opusCodec) channels() int   { return c.ch }
func (c *opusCodec) preSkip() int    { return c.skip }
func (c *opusCodec) preroll() int    { return opusPreroll }

// header swallows OpusTags.
func (c *opusCodec) header([]byte) (bool, error) { return true, nil }

func (c *opusCodec) decode(pkt []byte, pcm []float32) (int, error) {
	return c.dec.DecodeFloat32(pkt, pcm)
}

func (c *opusCodec) reset() {}

type vorbisCodec struct {
	dec     *vorbis.Decoder
	ch      int
	rate    int
	headers [][]byte
}

func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 {
		return nil, errVorbisIdent
	}
	return &vorbisCodec{
		ch:      int(ident[11]),
		rate:    int(binary.LittleEndian.Uint32(ident[12:16])),
		headers: [][]byte{append([]byte(nil), ident...)},
	}, nil
}

func (c *vorbisCodec) sampleRate() int { return c.rate }
func (c *vorbisCodec) channels() int   { return c.ch }
func (c *vorbisCodec) preSkip() int    { return 0 }
func (c *vorbisCodec) preroll() int    { return 0 }

// header collects the comment and setup headers; the decoder is built
// once all three are in.
func (c *vorbisCodec) header(pkt []byte) (bool, error) {
	if c.dec != nil {
		return true, nil
	}
	c.headers = append(c.headers, append([]byte(nil), pkt...))
	if len(c.headers) < 3 {
		return false, nil
	}
	dec := &vorbis.Decoder{}
	for _, h := range c.headers {
		if err := dec.ReadHeader(h); err != nil {
			return false, fmt.Errorf("vorbis: %w", err)
		}
	}
	c.dec, c.headers = dec, nil
	return true, nil
}

func (c *vorbisCodec) decode(pkt []byte, pcm []float32) (int, error) {
	out, err := c.dec.Decode(pkt)
	if err != nil {
		return 0, err
	}
	return copy(pcm, out) / c.ch, nil
}

func (c *vorbisCodec) reset() { c.dec.Clear() }

// oggStream adapts an Ogg Opus or Vorbis stream to beep.StreamSeekCloser.
// Positions are in output samples, after the codec pre-skip.
type oggStream struct {
	ogg       *oggReader
	codec     oggCodec
	closer    io.Closer
	dataStart int64

	total   int
	pos     int
	pending [][]byte
	pcm     []float32
	pcmPos  int
	drop    int // decoded samples still to discard
	err     error
}

func decodeOgg(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	o := &oggReader{r: rc, size: -1}
	first, err := o.readPage()
	if err != nil {
		return nil, beep.Format{}, err
	}
	if len(first.packets) == 0 {
		return nil, beep.Format{}, errOggEmpty
	}
	o.serial = first.serial

	c, err := newOggCodec(first.packets[0])
	if err != nil {
		return nil, beep.Format{}, err
	}
	if c.channels() < 1 {
		return nil, beep.Format{}, errOggCodec
	}

	queue := first.packets[1:]
	o.carry = first.open
	for ready := false; !ready; {
		if len(queue) == 0 {
			p, err := o.next()
			if err != nil {
				return nil, beep.Format{}, fmt.Errorf("ogg headers: %w", err)
			}
			queue = p.packets
			continue
		}
		if ready, err = c.header(queue[0]); err != nil {
			return nil, beep.Format{}, err
		}
		queue = queue[1:]
	}

	dataStart, err := rc.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, beep.Format{}, err
	}
	o.size = streamSize(rc)

	s := &oggStream{
		ogg:       o,
		codec:     c,
		closer:    rc,
		dataStart: dataStart,
		pending:   queue,
		pcm:       make([]float32, 0, oggMaxFrame*c.channels()),
		drop:      c.preSkip(),
	}
	if last := o.lastGranule(dataStart); last > 0 {
		s.total = max(int(last)-c.preSkip(), 0)
	}
	if _, err := rc.Seek(dataStart, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}
	o.carry = nil

	format := beep.Format{
		SampleRate:  beep.SampleRate(c.sampleRate()),
		NumChannels: min(c.channels(), 2),
		Precision:   2,
	}
	return s, format, nil
}

// streamSize reports the byte length of r, or -1.
func streamSize(r io.Seeker) int64 {
	if s, ok := r.(interface{ Size() int64 }); ok {
		return s.Size()
	}
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return -1
	}
	return end
}

func (s *oggStream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	ch := s.codec.channels()
	n := 0
	for n < len(samples) {
		if s.pcmPos < len(s.pcm) {
			if s.drop > 0 {
				k := min(s.drop, (len(s.pcm)-s.pcmPos)/ch)
				s.drop -= k
				s.pcmPos += k * ch
				continue
			}
			frame := s.pcm[s.pcmPos : s.pcmPos+ch]
			samples[n][0] = float64(frame[0])
			samples[n][1] = float64(frame[min(1, ch-1)])
			s.pcmPos += ch
			s.pos++
			n++
			continue
		}

		if len(s.pending) == 0 {
			p, err := s.ogg.next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				return n, n > 0
			}
			s.pending = p.packets
			continue
		}

		pkt := s.pending[0]
		s.pending = s.pending[1:]
		frames, err := s.codec.decode(pkt, s.pcm[:cap(s.pcm)])
		if err != nil {
			// A corrupt packet costs one frame, not the stream.
			continue
		}
		s.pcm = s.pcm[:frames*ch]
		s.pcmPos = 0
	}
	return n, true
}

func (s *oggStream) Err() error { return s.err }

func (s *oggStream) Len() int { return s.total }

func (s *oggStream) Position() int { return s.pos }

func (s *oggStream) Seek(p int) error {
	p = max(p, 0)
	if s.total > 0 {
		p = min(p, s.total)
	}

	target := int64(p + s.codec.preSkip())
	start, err := s.ogg.seekGranule(max(target-int64(s.codec.preroll()), 0), s.dataStart)
	if err != nil {
		return err
	}
	s.codec.reset()
	s.pending = nil
	s.pcm = s.pcm[:0]
	s.pcmPos = 0
	s.drop = int(target - start)
	s.pos = p
	s.err = nil
	return nil
}

func (s *oggStream) Close() error { return s.closer.Close() }
