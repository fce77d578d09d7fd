package engine

import (
	"errors"
	"time"
)

// ErrNotReady is returned by pipeline operations issued before the first Ready event.
var ErrNotReady = errors.New("pipeline not ready")

// ErrUnsupportedFormat is returned when no decoder handles a stream.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// EventKind identifies a pipeline bus event.
type EventKind int

const (
	// EventReady fires once the stream is opened and decodable.
	EventReady EventKind = iota
	// EventBufferLevel reports the decode-ahead level in percent.
	EventBufferLevel
	// EventEndOfStream fires when the last sample has been rendered.
	EventEndOfStream
	// EventFault reports an unrecoverable pipeline error.
	EventFault
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventBufferLevel:
		return "buffer-level"
	case EventEndOfStream:
		return "end-of-stream"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event is a message from a pipeline's internal goroutines.
type Event struct {
	Kind    EventKind
	Percent int   // EventBufferLevel only
	Err     error // EventFault only
}

// Source describes the stream to load.
type Source struct {
	URL      string
	MimeType string
}

// Pipeline decodes and renders one stream. Implementations run their own
// goroutines and report through Events; every other method is called from the
// owning event loop and must not block on the network.
type Pipeline interface {
	// Load begins fetching and decoding src. The pipeline starts paused.
	Load(src Source) error
	Play()
	Pause()
	Seek(pos time.Duration) error
	Position() (time.Duration, error)
	// Duration returns the stream length, or 0 if unknown.
	Duration() time.Duration
	// SetVolume sets the output level (0.0 to 1.0). It may be called
	// before the stream is ready.
	SetVolume(level float64)
	// Events is closed after Close.
	Events() <-chan Event
	Close() error
}

// PipelineFactory creates a fresh pipeline for each loaded stream.
type PipelineFactory func() Pipeline
