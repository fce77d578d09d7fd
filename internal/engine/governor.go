package engine

// PauseReason records who paused the transport.
type PauseReason int

const (
	PauseNone PauseReason = iota
	// PauseUser is an explicit pause the governor must not undo.
	PauseUser
	// PauseGovernor is an automatic pause during buffer underrun.
	PauseGovernor
)

func (r PauseReason) String() string {
	switch r {
	case PauseNone:
		return "none"
	case PauseUser:
		return "user"
	case PauseGovernor:
		return "governor"
	default:
		return "unknown"
	}
}

// Action is what the governor asks the engine to do.
type Action int

const (
	ActionNone Action = iota
	// ActionPause stalls a playing transport.
	ActionPause
	// ActionResume restarts a governor-paused transport.
	ActionResume
	// ActionHold settles a refilled transport into Paused, honoring a user pause.
	ActionHold
)

// Governor auto-pauses the engine on buffer underrun and resumes it on refill.
// It has no I/O and is driven by the engine on the event loop.
type Governor struct {
	starved int
	full    int
	level   int
	reason  PauseReason
}

// NewGovernor creates a governor. Levels below starved stall playback;
// levels at or above full release it.
func NewGovernor(starved, full int) *Governor {
	if full <= 0 || full > 100 {
		full = 100
	}
	if starved <= 0 || starved > full {
		starved = full
	}
	return &Governor{starved: starved, full: full, level: -1}
}

// Reason returns the current pause reason.
func (g *Governor) Reason() PauseReason { return g.reason }

// Level returns the last observed buffer level, or -1 if none was seen.
func (g *Governor) Level() int { return g.level }

// Full reports whether the last observed level releases a stall.
func (g *Governor) Full() bool { return g.level >= g.full }

// Starved reports whether the last observed level stalls playback.
func (g *Governor) Starved() bool { return g.level >= 0 && g.level < g.starved }

// Hold marks the transport as governor-paused until the next refill.
func (g *Governor) Hold() { g.reason = PauseGovernor }

// Reset forgets the level and reason.
func (g *Governor) Reset() {
	g.level = -1
	g.reason = PauseNone
}

// Record stores a level without acting on it.
func (g *Governor) Record(level int) { g.level = level }

// Observe records a level and returns the action for the engine in state s.
func (g *Governor) Observe(level int, s State) Action {
	g.level = level
	switch {
	case s == Playing && g.Starved():
		g.reason = PauseGovernor
		return ActionPause
	case s == Buffering && g.Full():
		return g.Release()
	}
	return ActionNone
}

// Release ends a stall. It resumes unless the user paused in the meantime.
func (g *Governor) Release() Action {
	switch g.reason {
	case PauseGovernor:
		g.reason = PauseNone
		return ActionResume
	case PauseUser:
		g.reason = PauseNone
		return ActionHold
	default:
		return ActionNone
	}
}

// UserPause records an explicit pause issued while stalled.
func (g *Governor) UserPause() {
	if g.reason == PauseGovernor {
		g.reason = PauseUser
	}
}

// UserPlay withdraws an explicit pause issued while stalled.
func (g *Governor) UserPlay() {
	if g.reason == PauseUser {
		g.reason = PauseGovernor
	}
}
