package session

import (
	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/engine"
)

// OpenedMsg carries the result of an open-session request.
type OpenedMsg struct {
	RequestID uint64
	ItemID    string
	// Seek is the requested start position in seconds, negative to resume.
	Seek    float64
	Session *abs.PlaybackSession
	Err     error
}

// EngineEventMsg carries a pipeline event for the session generation that
// was active when the watch started.
type EngineEventMsg struct {
	Gen   uint64
	Event engine.Event
}

// ProgressTickMsg is sent by the progress sampler.
type ProgressTickMsg struct{ Gen uint64 }

// SyncTickMsg is sent by the sync scheduler.
type SyncTickMsg struct{ Gen uint64 }

// SyncResultMsg is the outcome of a periodic sync.
type SyncResultMsg struct {
	SessionID string
	Err       error
}

// ClosedMsg is the outcome of a close-sync.
type ClosedMsg struct {
	SessionID string
	Err       error
}

// StartedMsg is emitted once a session is installed and the engine is loading.
type StartedMsg struct {
	Session Session
}

// EndReason tells why a session was retired.
type EndReason int

const (
	// EndStopped covers explicit stops and replacement by a new start.
	EndStopped EndReason = iota
	// EndFinished means the stream played to the end.
	EndFinished
	// EndFailed means the engine faulted.
	EndFailed
)

func (r EndReason) String() string {
	switch r {
	case EndStopped:
		return "stopped"
	case EndFinished:
		return "finished"
	case EndFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EndedMsg is emitted when a session is retired, with its final position.
type EndedMsg struct {
	Session Session
	Reason  EndReason
}
