// Package list provides a generic keyboard-driven scrollable list.
package list

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/ui"
)

// Action represents what happened during Update.
type Action int

const (
	ActionNone  Action = iota
	ActionMoved        // cursor changed
	ActionEnter        // enter on a row
)

// Result is returned from Update to tell the parent what happened.
type Result struct {
	Action Action
	Index  int // -1 when no row applies
}

// RowFunc renders item i at the given width. selected marks the cursor row.
type RowFunc[T any] func(item T, width int, selected bool) string

// Model is a scrollable list of T. It owns navigation; rows are drawn by
// the RowFunc given to View.
type Model[T any] struct {
	ui.Size
	items  []T
	cursor cursor
	key    func(T) string
}

// New creates a list. key identifies items so the selection survives
// SetItems; it may be nil.
func New[T any](key func(T) string) Model[T] {
	return Model[T]{cursor: cursor{margin: ui.ScrollMargin}, key: key}
}

// SetItems replaces the items, keeping the selected item when it is still
// present.
func (m *Model[T]) SetItems(items []T) {
	prev, had := m.Selected()
	m.items = items
	if had && m.key != nil && m.Select(m.key(prev)) {
		return
	}
	m.cursor.jump(m.cursor.pos, len(items), m.Height())
	if len(items) == 0 {
		m.cursor = cursor{margin: m.cursor.margin}
	}
}

// Select moves the cursor to the item with the given key.
func (m *Model[T]) Select(id string) bool {
	if m.key == nil || id == "" {
		return false
	}
	for i, it := range m.items {
		if m.key(it) == id {
			m.cursor.jump(i, len(m.items), m.Height())
			return true
		}
	}
	return false
}

// Items returns the current items.
func (m Model[T]) Items() []T { return m.items }

// Len returns the number of items.
func (m Model[T]) Len() int { return len(m.items) }

// Selected returns the item under the cursor.
func (m Model[T]) Selected() (T, bool) {
	if m.cursor.pos >= len(m.items) {
		var zero T
		return zero, false
	}
	return m.items[m.cursor.pos], true
}

// SelectedIndex returns the cursor position.
func (m Model[T]) SelectedIndex() int { return m.cursor.pos }

// Update handles navigation keys: j/k, arrows up/down, g/G, home/end,
// pgup/pgdown and enter.
func (m *Model[T]) Update(msg tea.Msg) Result {
	k, ok := msg.(tea.KeyMsg)
	if !ok || len(m.items) == 0 {
		return Result{Index: -1}
	}
	n, h := len(m.items), m.Height()
	before := m.cursor.pos

	switch k.String() {
	case "j", "down":
		m.cursor.move(1, n, h)
	case "k", "up":
		m.cursor.move(-1, n, h)
	case "g", "home":
		m.cursor.jump(0, n, h)
	case "G", "end":
		m.cursor.jump(n-1, n, h)
	case "pgdown", "ctrl+d":
		m.cursor.move(max(h/2, 1), n, h)
	case "pgup", "ctrl+u":
		m.cursor.move(-max(h/2, 1), n, h)
	case "enter":
		return Result{Action: ActionEnter, Index: m.cursor.pos}
	default:
		return Result{Index: -1}
	}

	if m.cursor.pos != before {
		return Result{Action: ActionMoved, Index: m.cursor.pos}
	}
	return Result{Index: -1}
}

// View renders the visible rows, padded to the list height.
func (m Model[T]) View(row RowFunc[T]) string {
	start, end := m.cursor.visible(len(m.items), m.Height())
	lines := make([]string, 0, m.Height())
	for i := start; i < end; i++ {
		lines = append(lines, row(m.items[i], m.Width(), i == m.cursor.pos))
	}
	for len(lines) < m.Height() {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
