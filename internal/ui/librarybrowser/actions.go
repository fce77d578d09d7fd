package librarybrowser

// ActionKind is what a key did in the browser.
type ActionKind int

const (
	ActionNone  ActionKind = iota
	ActionMoved            // book cursor moved
	ActionOpen             // enter on a book: its chapters are wanted
	ActionPlay             // enter on a chapter
)

// Action is returned from Update to tell the parent what to do.
type Action struct {
	Kind   ActionKind
	ItemID string
	// Start is the chapter start in seconds, for ActionPlay.
	Start float64
}
