package mpris

import (
	"fmt"
	"hash/fnv"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Playback mirrors the engine state as seen by desktop controllers.
type Playback int

const (
	Stopped Playback = iota
	Playing
	Paused
)

// Status is the last published state of the listening session.
type Status struct {
	Playback Playback
	ItemID   string
	Title    string
	Author   string
	ArtPath  string
	Length   time.Duration
	Position time.Duration
	// At is when Position was sampled.
	At time.Time
}

// CurrentPosition extrapolates Position while playing.
func (s Status) CurrentPosition(now time.Time) time.Duration {
	pos := s.Position
	if s.Playback == Playing && !s.At.IsZero() {
		pos += now.Sub(s.At)
	}
	if s.Length > 0 {
		pos = min(pos, s.Length)
	}
	return max(pos, 0)
}

// Action is a transport request coming from the desktop.
type Action int

const (
	ActionPlay Action = iota
	ActionPause
	ActionToggle
	ActionStop
	ActionSeek        // relative, Offset
	ActionSetPosition // absolute, Position
)

// CommandMsg carries a desktop request into the bubbletea loop.
type CommandMsg struct {
	Action   Action
	Offset   time.Duration
	Position time.Duration
}

// core holds the state shared between D-Bus callbacks and the UI loop.
// D-Bus calls arrive on their own goroutines, so the status is swapped
// atomically and commands are forwarded with send.
type core struct {
	status atomic.Pointer[Status]
	send   func(tea.Msg)
	now    func() time.Time
}

func newCore(send func(tea.Msg)) *core {
	c := &core{send: send, now: time.Now}
	c.status.Store(&Status{})
	return c
}

func (c *core) publish(s Status) {
	if s.At.IsZero() {
		s.At = c.now()
	}
	c.status.Store(&s)
}

func (c *core) snapshot() Status {
	return *c.status.Load()
}

func (c *core) dispatch(cmd CommandMsg) error {
	if c.send == nil {
		return nil
	}
	if c.snapshot().ItemID == "" && cmd.Action != ActionPlay {
		return nil
	}
	c.send(cmd)
	return nil
}

func trackID(itemID string) string {
	h := fnv.New64a()
	h.Write([]byte(itemID))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Book/%x", h.Sum64())
}
