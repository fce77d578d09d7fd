package engine

import "time"

// Mock is a test double for Pipeline.
type Mock struct {
	source      Source
	loadErr     error
	seekErr     error
	position    time.Duration
	positionErr error
	duration    time.Duration
	calls       []string
	seekCalls   []time.Duration
	volumes     []float64
	events      chan Event
	closed      bool
}

// NewMock creates a new mock pipeline for testing.
func NewMock() *Mock {
	return &Mock{events: make(chan Event, eventBufferSize)}
}

// Factory returns a PipelineFactory that always hands out m.
func (m *Mock) Factory() PipelineFactory {
	return func() Pipeline { return m }
}

func (m *Mock) Load(src Source) error {
	m.calls = append(m.calls, "load")
	m.source = src
	return m.loadErr
}

func (m *Mock) Play() { m.calls = append(m.calls, "play") }

func (m *Mock) Pause() { m.calls = append(m.calls, "pause") }

func (m *Mock) Seek(pos time.Duration) error {
	m.calls = append(m.calls, "seek")
	m.seekCalls = append(m.seekCalls, pos)
	if m.seekErr != nil {
		return m.seekErr
	}
	m.position = pos
	return nil
}

func (m *Mock) Position() (time.Duration, error) {
	if m.positionErr != nil {
		return 0, m.positionErr
	}
	return m.position, nil
}

func (m *Mock) Duration() time.Duration { return m.duration }

func (m *Mock) SetVolume(level float64) { m.volumes = append(m.volumes, level) }

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	m.calls = append(m.calls, "close")
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Test helpers

func (m *Mock) SetLoadError(err error) { m.loadErr = err }

func (m *Mock) SetSeekError(err error) { m.seekErr = err }

func (m *Mock) SetPosition(d time.Duration) { m.position = d }

func (m *Mock) SetPositionError(err error) { m.positionErr = err }

func (m *Mock) SetDuration(d time.Duration) { m.duration = d }

func (m *Mock) Source() Source { return m.source }

func (m *Mock) Calls() []string { return m.calls }

func (m *Mock) ResetCalls() { m.calls = nil }

func (m *Mock) SeekCalls() []time.Duration { return m.seekCalls }

// Volumes returns every level passed to SetVolume, oldest first.
func (m *Mock) Volumes() []float64 { return m.volumes }

func (m *Mock) Closed() bool { return m.closed }

// Emit queues an event as if a pipeline goroutine had sent it.
func (m *Mock) Emit(ev Event) {
	if m.closed {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// Verify Mock implements Pipeline at compile time.
var _ Pipeline = (*Mock)(nil)
