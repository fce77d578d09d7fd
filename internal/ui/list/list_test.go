package list

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func items(n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = fmt.Sprintf("item-%02d", i)
	}
	return out
}

func newList(n, height int) Model[string] {
	m := New(func(s string) string { return s })
	m.SetSize(40, height)
	m.SetItems(items(n))
	return m
}

func TestUpdate_Navigation(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantPos int
		action  Action
	}{
		{"down", []string{"j"}, 1, ActionMoved},
		{"arrow down twice", []string{"down", "down"}, 2, ActionMoved},
		{"up at top", []string{"k"}, 0, ActionNone},
		{"end", []string{"end"}, 19, ActionMoved},
		{"bottom then top", []string{"G", "g"}, 0, ActionMoved},
		{"page down", []string{"ctrl+d"}, 2, ActionMoved},
		{"enter", []string{"j", "enter"}, 1, ActionEnter},
		{"unknown key", []string{"x"}, 0, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newList(20, 5)
			var res Result
			for _, k := range tt.keys {
				if k == "ctrl+d" {
					res = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
					continue
				}
				res = m.Update(key(k))
			}
			assert.Equal(t, tt.wantPos, m.SelectedIndex())
			assert.Equal(t, tt.action, res.Action)
		})
	}
}

func TestUpdate_Empty(t *testing.T) {
	m := newList(0, 5)
	res := m.Update(key("enter"))
	assert.Equal(t, ActionNone, res.Action)
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestView_ScrollsWithCursor(t *testing.T) {
	m := newList(20, 5)
	for range 10 {
		m.Update(key("j"))
	}

	out := m.View(func(s string, _ int, selected bool) string {
		if selected {
			return "> " + s
		}
		return "  " + s
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, out, "> item-10")
	assert.NotContains(t, out, "item-00")
}

func TestView_PadsShortList(t *testing.T) {
	m := newList(2, 4)
	out := m.View(func(s string, _ int, _ bool) string { return s })
	assert.Len(t, strings.Split(out, "\n"), 4)
}

func TestSetItems_KeepsSelection(t *testing.T) {
	m := newList(5, 5)
	m.Update(key("j"))
	m.Update(key("j"))

	m.SetItems([]string{"new", "item-02", "item-03"})

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "item-02", sel)
}

func TestSetItems_ClampsWhenSelectionGone(t *testing.T) {
	m := newList(5, 5)
	m.Update(key("G"))

	m.SetItems(items(2))

	assert.Equal(t, 1, m.SelectedIndex())
}

func TestSelect(t *testing.T) {
	m := newList(5, 5)
	assert.True(t, m.Select("item-03"))
	assert.Equal(t, 3, m.SelectedIndex())
	assert.False(t, m.Select("missing"))
	assert.Equal(t, 3, m.SelectedIndex())
}

func TestCursor_Follow(t *testing.T) {
	tests := []struct {
		name       string
		c          cursor
		n, height  int
		wantOffset int
	}{
		{"keeps margin at bottom", cursor{pos: 4, margin: 1}, 10, 5, 1},
		{"keeps margin at top", cursor{pos: 2, offset: 5, margin: 1}, 10, 5, 1},
		{"clamped to end", cursor{pos: 9, margin: 2}, 10, 5, 5},
		{"margin larger than viewport", cursor{pos: 1, margin: 5}, 10, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.c
			c.follow(tt.n, tt.height)
			assert.Equal(t, tt.wantOffset, c.offset)
		})
	}
}
