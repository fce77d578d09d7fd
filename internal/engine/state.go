// internal/engine/state.go
package engine

// State is the media engine state machine.
//
//	┌──────┐  Load  ┌───────────┐  ready + full  ┌─────────┐  toggle  ┌────────┐
//	│ Idle │ ─────▶ │ Buffering │ ─────────────▶ │ Playing │ ◀──────▶ │ Paused │
//	└──────┘        └───────────┘ ◀───────────── └─────────┘          └────────┘
//	                      │           starved                              ▲
//	                      └────────────────────────────────────────────────┘
//	                             full, after a user pause while starved
//
//	any active state ── end of stream ──▶ Finished
//	any active state ── pipeline fault ─▶ Error
//	any state ───────── Close ──────────▶ Idle
//
// Valid transitions:
//   - Idle      → Buffering (via Load)
//   - Buffering → Playing   (first ready signal and buffer full, or refill after starvation)
//   - Buffering → Paused    (refill after the user paused during starvation)
//   - Playing   → Buffering (buffer starved, governor pause)
//   - Playing  ↔ Paused    (Toggle, user-initiated only)
//   - any active → Finished (end of stream, terminal)
//   - any active → Error    (pipeline fault, terminal)
//   - any       → Idle      (via Close)
//
// Finished and Error accept no further events until Close.
type State int

const (
	Idle State = iota
	Buffering
	Playing
	Paused
	Finished
	Error
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Buffering:
		return "Buffering"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Finished:
		return "Finished"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a stream is loaded and not terminated.
func (s State) IsActive() bool {
	return s == Buffering || s == Playing || s == Paused
}

// IsTerminal returns true for Finished and Error.
func (s State) IsTerminal() bool {
	return s == Finished || s == Error
}

// AcceptsTransport returns true if play/pause/seek requests reach the pipeline.
func (s State) AcceptsTransport() bool {
	return s == Playing || s == Paused
}
