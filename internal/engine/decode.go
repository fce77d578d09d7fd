package engine

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

type codec int

const (
	codecMP3 codec = iota
	codecFLAC
	codecM4A
	codecWAV
	codecOgg
)

func (c codec) String() string {
	switch c {
	case codecMP3:
		return "MP3"
	case codecFLAC:
		return "FLAC"
	case codecM4A:
		return "M4A"
	case codecWAV:
		return "WAV"
	case codecOgg:
		return "Ogg"
	default:
		return "unknown"
	}
}

var mimeCodecs = map[string]codec{
	"audio/mpeg":   codecMP3,
	"audio/mp3":    codecMP3,
	"audio/flac":   codecFLAC,
	"audio/x-flac": codecFLAC,
	"audio/mp4":    codecM4A,
	"audio/m4a":    codecM4A,
	"audio/x-m4a":  codecM4A,
	"audio/x-m4b":  codecM4A,
	"audio/aac":    codecM4A,
	"audio/wav":    codecWAV,
	"audio/wave":   codecWAV,
	"audio/x-wav":  codecWAV,
	"audio/ogg":    codecOgg,
	"audio/opus":   codecOgg,
	"audio/vorbis": codecOgg,
	"audio/x-ogg":  codecOgg,
}

var extCodecs = map[string]codec{
	".mp3":  codecMP3,
	".flac": codecFLAC,
	".m4a":  codecM4A,
	".m4b":  codecM4A,
	".mp4":  codecM4A,
	".wav":  codecWAV,
	".ogg":  codecOgg,
	".oga":  codecOgg,
	".opus": codecOgg,
}

// detectCodec picks a decoder from the MIME type, falling back to the URL extension.
func detectCodec(src Source) (codec, error) {
	if mt, _, err := mime.ParseMediaType(src.MimeType); err == nil {
		if c, ok := mimeCodecs[strings.ToLower(mt)]; ok {
			return c, nil
		}
	}

	if u, err := url.Parse(src.URL); err == nil {
		if c, ok := extCodecs[strings.ToLower(path.Ext(u.Path))]; ok {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, src.MimeType)
}

// openDecoder wraps r in the decoder for c. On success the decoder owns r.
func openDecoder(c codec, r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch c {
	case codecMP3:
		return decodeMP3(r)
	case codecFLAC:
		return flac.Decode(r)
	case codecM4A:
		return decodeM4A(r)
	case codecWAV:
		return wav.Decode(r)
	case codecOgg:
		return decodeOgg(r)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}
