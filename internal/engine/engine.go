// Package engine drives a decode/render pipeline through the playback state
// machine. An Engine is owned by a single event loop and is not safe for
// concurrent use; pipeline goroutines reach it only through Events.
package engine

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the buffering thresholds and the initial volume, in percent.
type Config struct {
	StarvedPercent int
	FullPercent    int
	Volume         int // 0 means full volume
}

// Engine is the media engine state machine.
type Engine struct {
	newPipeline PipelineFactory
	pipeline    Pipeline
	governor    *Governor
	log         logrus.FieldLogger

	volume int // percent

	state       State
	ready       bool
	pendingSeek time.Duration
	seekPending bool
	lastPos     time.Duration
	duration    time.Duration
	err         error
}

// New creates an idle engine. Each Load gets a fresh pipeline from factory.
func New(factory PipelineFactory, cfg Config, log logrus.FieldLogger) *Engine {
	volume := cfg.Volume
	if volume <= 0 {
		volume = 100
	}
	return &Engine{
		newPipeline: factory,
		governor:    NewGovernor(cfg.StarvedPercent, cfg.FullPercent),
		log:         log,
		volume:      min(volume, 100),
		state:       Idle,
	}
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Err returns the fault that moved the engine to Error.
func (e *Engine) Err() error { return e.err }

// PauseReason returns who paused the transport during the current stall.
func (e *Engine) PauseReason() PauseReason { return e.governor.Reason() }

// BufferLevel returns the last reported buffer level, or -1.
func (e *Engine) BufferLevel() int { return e.governor.Level() }

// Volume returns the output level in percent.
func (e *Engine) Volume() int { return e.volume }

// SetVolume sets the output level in percent, clamped to 0..100, and returns
// the level applied. It carries over to later loads.
func (e *Engine) SetVolume(percent int) int {
	e.volume = min(max(percent, 0), 100)
	if e.pipeline != nil {
		e.pipeline.SetVolume(float64(e.volume) / 100)
	}
	return e.volume
}

// Events returns the current pipeline's event channel, or nil when idle.
func (e *Engine) Events() <-chan Event {
	if e.pipeline == nil {
		return nil
	}
	return e.pipeline.Events()
}

// Load starts a stream. A positive seek is applied once, on the first ready signal.
// Loading while a stream is active closes it first.
func (e *Engine) Load(src Source, seek time.Duration) error {
	if e.pipeline != nil {
		e.Close()
	}

	p := e.newPipeline()
	p.SetVolume(float64(e.volume) / 100)
	if err := p.Load(src); err != nil {
		_ = p.Close()
		e.state = Error
		e.err = err
		return err
	}

	e.pipeline = p
	e.state = Buffering
	e.ready = false
	e.err = nil
	e.duration = 0
	e.governor.Reset()
	// The pipeline starts paused until the initial prebuffer is full.
	e.governor.Hold()

	e.seekPending = seek > 0
	e.pendingSeek = max(seek, 0)
	e.lastPos = e.pendingSeek
	return nil
}

// HandleEvent applies a pipeline event and reports whether the state changed.
// Events are ignored when idle or terminated.
func (e *Engine) HandleEvent(ev Event) bool {
	if e.pipeline == nil || e.state == Idle || e.state.IsTerminal() {
		return false
	}
	prev := e.state

	switch ev.Kind {
	case EventReady:
		e.handleReady()
	case EventBufferLevel:
		if !e.ready {
			e.governor.Record(ev.Percent)
			break
		}
		e.apply(e.governor.Observe(ev.Percent, e.state))
	case EventEndOfStream:
		e.state = Finished
	case EventFault:
		e.state = Error
		e.err = ev.Err
	}

	if e.state != prev {
		e.log.WithFields(logrus.Fields{"from": prev, "to": e.state, "event": ev.Kind}).Debug("engine transition")
	}
	return e.state != prev
}

func (e *Engine) handleReady() {
	if e.ready {
		e.log.Debug("duplicate ready signal ignored")
		return
	}
	e.ready = true
	e.Duration()

	if e.seekPending {
		e.seekPending = false
		if err := e.pipeline.Seek(e.pendingSeek); err != nil {
			e.log.WithError(err).WithField("position", e.pendingSeek).Warn("initial seek failed")
		}
	}

	if e.governor.Full() {
		e.apply(e.governor.Release())
	}
}

func (e *Engine) apply(a Action) {
	switch a {
	case ActionPause:
		e.pipeline.Pause()
		e.state = Buffering
	case ActionResume:
		e.pipeline.Play()
		e.state = Playing
	case ActionHold:
		e.state = Paused
	case ActionNone:
	}
}

// Play resumes a paused transport. While buffering it only records intent.
func (e *Engine) Play() {
	switch e.state {
	case Paused:
		if e.governor.Starved() {
			e.governor.Hold()
			e.state = Buffering
			return
		}
		e.pipeline.Play()
		e.state = Playing
	case Buffering:
		e.governor.UserPlay()
	case Idle, Playing, Finished, Error:
	}
}

// Pause pauses a playing transport. While buffering it only records intent,
// so the refill settles into Paused instead of resuming.
func (e *Engine) Pause() {
	switch e.state {
	case Playing:
		e.pipeline.Pause()
		e.state = Paused
	case Buffering:
		e.governor.UserPause()
	case Idle, Paused, Finished, Error:
	}
}

// Toggle flips between playing and paused, honoring pending intent while buffering.
func (e *Engine) Toggle() {
	switch e.state {
	case Playing:
		e.Pause()
	case Paused:
		e.Play()
	case Buffering:
		if e.governor.Reason() == PauseUser {
			e.Play()
		} else {
			e.Pause()
		}
	case Idle, Finished, Error:
	}
}

// Seek moves to an absolute position, clamped to the stream bounds.
// It is ignored when idle or terminated. Before the first ready signal it
// replaces the pending initial seek.
func (e *Engine) Seek(pos time.Duration) {
	if e.pipeline == nil || e.state == Idle || e.state.IsTerminal() {
		return
	}
	pos = max(pos, 0)
	if d := e.Duration(); d > 0 && pos > d {
		pos = d
	}

	if !e.ready {
		e.pendingSeek = pos
		e.seekPending = true
		e.lastPos = pos
		return
	}

	if err := e.pipeline.Seek(pos); err != nil {
		e.log.WithError(err).WithField("position", pos).Warn("seek failed")
		return
	}
	e.lastPos = pos
}

// Position returns the playback position. If the pipeline cannot report one,
// the last known sample is returned.
func (e *Engine) Position() time.Duration {
	if e.pipeline == nil || !e.ready {
		return e.lastPos
	}
	pos, err := e.pipeline.Position()
	if err != nil {
		return e.lastPos
	}
	e.lastPos = pos
	return pos
}

// Duration returns the stream length reported by the pipeline, or 0.
func (e *Engine) Duration() time.Duration {
	if e.pipeline != nil {
		if d := e.pipeline.Duration(); d > 0 {
			e.duration = d
		}
	}
	return e.duration
}

// Close releases the pipeline and returns to Idle. It is safe to call repeatedly.
func (e *Engine) Close() {
	if e.pipeline != nil {
		if err := e.pipeline.Close(); err != nil {
			e.log.WithError(err).Debug("pipeline close")
		}
	}
	e.pipeline = nil
	e.state = Idle
	e.ready = false
	e.seekPending = false
	e.pendingSeek = 0
	e.lastPos = 0
	e.duration = 0
	e.err = nil
	e.governor.Reset()
}
