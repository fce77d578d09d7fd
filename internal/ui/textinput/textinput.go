// Package textinput provides a one-line prompt that reports every edit, for
// filtering a list while the user types.
package textinput

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/ui/styles"
)

// Result tells the parent what a key did to the prompt.
type Result int

const (
	ResultNone      Result = iota
	ResultChanged          // text edited
	ResultConfirmed        // enter; the prompt closes and keeps the text
	ResultCanceled         // esc; the prompt closes and restores the text it opened with
)

// Model is the prompt. The zero value is unusable; use New.
type Model struct {
	input   textinput.Model
	initial string
	active  bool
}

// New creates a closed prompt showing placeholder when empty.
func New(placeholder string) Model {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = placeholder
	in.CharLimit = 200
	return Model{input: in}
}

// Start opens the prompt on text.
func (m *Model) Start(text string) tea.Cmd {
	m.initial = text
	m.active = true
	m.input.SetValue(text)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Reset closes the prompt without touching its text.
func (m *Model) Reset() {
	m.active = false
	m.input.Blur()
}

// Clear empties the text.
func (m *Model) Clear() {
	m.initial = ""
	m.input.SetValue("")
}

// Active reports whether the prompt takes keys.
func (m Model) Active() bool { return m.active }

// Value returns the current text.
func (m Model) Value() string { return m.input.Value() }

// SetWidth sets the visible width of the text.
func (m *Model) SetWidth(width int) {
	m.input.Width = max(width-len(m.input.Prompt)-1, 1)
}

// Update handles a message while the prompt is open.
func (m *Model) Update(msg tea.Msg) (Result, tea.Cmd) {
	if !m.active {
		return ResultNone, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEsc:
			m.input.SetValue(m.initial)
			m.Reset()
			return ResultCanceled, nil
		case tea.KeyEnter:
			m.Reset()
			return ResultConfirmed, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return ResultChanged, cmd
	}
	return ResultNone, cmd
}

// View renders the prompt line.
func (m Model) View() string {
	if !m.active {
		return styles.T().S().Muted.Render(m.input.Prompt + m.input.Value())
	}
	return m.input.View()
}
