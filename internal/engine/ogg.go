package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	oggHeaderSize = 27
	oggScanChunk  = 64 << 10
	// noGranule marks a page on which no packet ends.
	noGranule = -1
)

var (
	oggCapture = []byte("OggS")

	errOggCapture = errors.New("ogg: missing capture pattern")
	errOggVersion = errors.New("ogg: unsupported version")
	errOggEmpty   = errors.New("ogg: no packets in first page")
)

type oggPage struct {
	offset    int64
	size      int64
	serial    uint32
	granule   int64
	continued bool
	packets   [][]byte
	// open is a trailing packet that continues on the next page.
	open []byte
}

// oggReader splits the first logical stream of an Ogg bitstream into
// packets. Pages of other streams are skipped.
type oggReader struct {
	r      io.ReadSeeker
	size   int64 // -1 when unknown
	serial uint32
	carry  []byte
	hdr    [oggHeaderSize]byte
}

// readPage reads one raw page at the current offset.
func (o *oggReader) readPage() (*oggPage, error) {
	off, err := o.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(o.r, o.hdr[:]); err != nil {
		return nil, eofOf(err)
	}
	if !bytes.Equal(o.hdr[:4], oggCapture) {
		return nil, errOggCapture
	}
	if o.hdr[4] != 0 {
		return nil, errOggVersion
	}

	lacing := make([]byte, o.hdr[26])
	if _, err := io.ReadFull(o.r, lacing); err != nil {
		return nil, eofOf(err)
	}
	bodyLen := 0
	for _, l := range lacing {
		bodyLen += int(l)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(o.r, body); err != nil {
		return nil, eofOf(err)
	}

	p := &oggPage{
		offset:    off,
		size:      int64(oggHeaderSize + len(lacing) + bodyLen),
		serial:    binary.LittleEndian.Uint32(o.hdr[14:18]),
		granule:   int64(binary.LittleEndian.Uint64(o.hdr[6:14])),
		continued: o.hdr[5]&0x01 != 0,
	}

	var cur []byte
	pos := 0
	for _, l := range lacing {
		cur = append(cur, body[pos:pos+int(l)]...)
		pos += int(l)
		if l < 255 {
			p.packets = append(p.packets, cur)
			cur = nil
		}
	}
	p.open = cur
	return p, nil
}

// next returns the next page of the stream with packets that span pages
// joined. A continuation whose start was never seen is dropped.
func (o *oggReader) next() (*oggPage, error) {
	for {
		p, err := o.readPage()
		if err != nil {
			return nil, err
		}
		if p.serial != o.serial {
			continue
		}

		if p.continued {
			switch {
			case o.carry == nil && len(p.packets) > 0:
				p.packets = p.packets[1:]
			case o.carry == nil:
				p.open = nil
			case len(p.packets) > 0:
				p.packets[0] = append(o.carry, p.packets[0]...)
			default:
				p.open = append(o.carry, p.open...)
			}
		}
		o.carry = p.open
		return p, nil
	}
}

// pageAt finds the first page of the stream at or after off and leaves the
// reader positioned right after it.
func (o *oggReader) pageAt(off int64) (*oggPage, error) {
	for {
		start, err := o.sync(off)
		if err != nil {
			return nil, err
		}
		p, err := o.readPage()
		switch {
		case errors.Is(err, errOggCapture), errors.Is(err, errOggVersion):
			off = start + 1
			continue
		case err != nil:
			return nil, err
		case p.serial != o.serial:
			off = p.offset + p.size
			continue
		}
		return p, nil
	}
}

// sync positions the reader on the next capture pattern at or after off.
func (o *oggReader) sync(off int64) (int64, error) {
	buf := make([]byte, oggScanChunk)
	for {
		if _, err := o.r.Seek(off, io.SeekStart); err != nil {
			return 0, err
		}
		n, err := io.ReadFull(o.r, buf)
		if i := bytes.Index(buf[:n], oggCapture); i >= 0 {
			pos := off + int64(i)
			_, err := o.r.Seek(pos, io.SeekStart)
			return pos, err
		}
		if err != nil {
			return 0, eofOf(err)
		}
		off += int64(n - len(oggCapture) + 1)
	}
}

// lastGranule reads the granule position of the final page, or noGranule
// when the stream length is unknown.
func (o *oggReader) lastGranule(dataStart int64) int64 {
	if o.size < 0 {
		return noGranule
	}
	start := max(o.size-oggScanChunk, dataStart)
	buf := make([]byte, o.size-start)
	if _, err := o.r.Seek(start, io.SeekStart); err != nil {
		return noGranule
	}
	n, _ := io.ReadFull(o.r, buf)
	buf = buf[:n]

	for i := bytes.LastIndex(buf, oggCapture); i >= 0; i = bytes.LastIndex(buf[:i], oggCapture) {
		h := buf[i:]
		if len(h) < oggHeaderSize || h[4] != 0 || binary.LittleEndian.Uint32(h[14:18]) != o.serial {
			continue
		}
		if g := int64(binary.LittleEndian.Uint64(h[6:14])); g != noGranule {
			return g
		}
	}
	return noGranule
}

// seekGranule positions the reader on the page holding target and returns
// the granule at which decoding resumes.
func (o *oggReader) seekGranule(target, dataStart int64) (int64, error) {
	o.carry = nil
	if target <= 0 || o.size < 0 {
		_, err := o.r.Seek(dataStart, io.SeekStart)
		return 0, err
	}

	// Bisect to a page that ends before target.
	lo, hi := dataStart, o.size
	for hi-lo > oggScanChunk {
		mid := lo + (hi-lo)/2
		p, err := o.pageAt(mid)
		if err != nil || p.granule == noGranule || p.granule >= target {
			hi = mid
			continue
		}
		lo = mid
	}

	prev := int64(0)
	p, err := o.pageAt(lo)
	for err == nil && (p.granule == noGranule || p.granule < target) {
		if p.granule != noGranule {
			prev = p.granule
		}
		p, err = o.pageAt(p.offset + p.size)
	}
	if err != nil {
		return 0, err
	}
	_, err = o.r.Seek(p.offset, io.SeekStart)
	return prev, err
}

func eofOf(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}
