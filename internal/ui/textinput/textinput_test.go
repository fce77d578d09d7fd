package textinput

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m *Model, s string) Result {
	var last Result
	for _, r := range s {
		last, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return last
}

func TestTextInput_TypeAndConfirm(t *testing.T) {
	m := New("Search")
	m.Start("")
	require.True(t, m.Active())

	assert.Equal(t, ResultChanged, typeText(&m, "dune"))
	assert.Equal(t, "dune", m.Value())

	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ResultConfirmed, res)
	assert.False(t, m.Active())
	assert.Equal(t, "dune", m.Value())
}

func TestTextInput_Backspace(t *testing.T) {
	m := New("Search")
	m.Start("herbert")

	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, ResultChanged, res)
	assert.Equal(t, "herber", m.Value())
}

func TestTextInput_CancelRestoresText(t *testing.T) {
	m := New("Search")
	m.Start("dune")
	typeText(&m, " messiah")

	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ResultCanceled, res)
	assert.False(t, m.Active())
	assert.Equal(t, "dune", m.Value())
}

func TestTextInput_InactiveIgnoresKeys(t *testing.T) {
	m := New("Search")

	assert.Equal(t, ResultNone, typeText(&m, "x"))
	assert.Empty(t, m.Value())
}

func TestTextInput_NonEditingKey(t *testing.T) {
	m := New("Search")
	m.Start("dune")

	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, ResultNone, res)
	assert.True(t, m.Active())
}

func TestTextInput_Clear(t *testing.T) {
	m := New("Search")
	m.Start("dune")
	m.Reset()

	m.Clear()
	assert.Empty(t, m.Value())
}
