// Package session owns the lifecycle of a remote listening session: it opens
// the session on the server, drives the media engine, samples the position,
// keeps the server in sync and closes the session when it is retired.
//
// Everything here runs on the bubbletea update loop. Remote calls and engine
// event waits are tea.Cmd workers whose results come back as messages, and
// timers are generation-tagged tea.Tick commands that stop re-arming once the
// session that started them is gone.
package session

import (
	"context"
	"time"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/engine"
)

// Remote is the server side of a listening session.
type Remote interface {
	OpenSession(ctx context.Context, itemID string) (*abs.PlaybackSession, error)
	SyncSession(ctx context.Context, sessionID string, currentTime, duration float64) error
	CloseSession(ctx context.Context, sessionID string, currentTime, duration float64) error
}

// Observer receives session updates. Calls happen on the update loop.
type Observer interface {
	OnSessionStarted(title, author string, duration, currentTime float64)
	OnPositionTick(currentTime float64, formatted string)
	OnStateChanged(state engine.State)
	OnSessionError(kind Kind, message string)
}

// Session is the active listening session.
type Session struct {
	ID        string
	ItemID    string
	StreamURL string
	MimeType  string
	Title     string
	Author    string
	CoverPath string

	// Seconds. CurrentTime is written by the sampler and read by the scheduler.
	Duration    float64
	CurrentTime float64

	StartedAt time.Time
}

// Remaining returns the seconds left, or 0 when the duration is unknown.
func (s Session) Remaining() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return max(s.Duration-s.CurrentTime, 0)
}

// Progress returns the listened fraction in [0, 1].
func (s Session) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(max(s.CurrentTime/s.Duration, 0), 1)
}

// Snapshot is a read-only view of the controller for renderers and MPRIS.
type Snapshot struct {
	Active      bool
	Starting    bool
	PendingItem string
	Session     Session
	State       engine.State
	PauseReason engine.PauseReason
	BufferLevel int
	Volume      int // percent
}

// Position returns the snapshot position as a duration.
func (s Snapshot) Position() time.Duration { return seconds(s.Session.CurrentTime) }

// Length returns the snapshot duration as a duration.
func (s Snapshot) Length() time.Duration { return seconds(s.Session.Duration) }

// Left returns the time still to listen to, or 0 when the length is unknown.
func (s Snapshot) Left() time.Duration { return seconds(s.Session.Remaining()) }

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
