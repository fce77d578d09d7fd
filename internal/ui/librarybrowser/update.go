package librarybrowser

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/ui/list"
	"github.com/llehouerou/shelf/internal/ui/textinput"
)

// Update handles keys. While the search prompt is open it takes every key.
func (m *Model) Update(msg tea.Msg) (Action, tea.Cmd) {
	if m.search.Active() {
		res, cmd := m.search.Update(msg)
		if res == textinput.ResultChanged || res == textinput.ResultCanceled {
			m.refresh()
		}
		return Action{}, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return Action{}, nil
	}
	if m.page == PageChapters {
		return m.handleChapterKey(k), nil
	}
	return m.handleBookKey(k)
}

func (m *Model) handleBookKey(k tea.KeyMsg) (Action, tea.Cmd) {
	switch k.String() {
	case "/":
		return Action{}, m.search.Start(m.search.Value())
	case "o":
		m.SetSort(m.sort.Next())
		return Action{}, nil
	case "esc":
		if m.search.Value() != "" {
			m.search.Clear()
			m.refresh()
		}
		return Action{}, nil
	}

	res := m.books.Update(k)
	item, ok := m.books.Selected()
	if !ok {
		return Action{}, nil
	}
	switch res.Action {
	case list.ActionEnter:
		return Action{Kind: ActionOpen, ItemID: item.ID}, nil
	case list.ActionMoved:
		return Action{Kind: ActionMoved, ItemID: item.ID}, nil
	case list.ActionNone:
	}
	return Action{}, nil
}

func (m *Model) handleChapterKey(k tea.KeyMsg) Action {
	switch k.String() {
	case "esc", "backspace":
		m.CloseDetail()
		return Action{}
	}

	if res := m.chapters.Update(k); res.Action != list.ActionEnter || m.detail == nil {
		return Action{}
	}
	ch, ok := m.chapters.Selected()
	if !ok {
		return Action{}
	}
	return Action{Kind: ActionPlay, ItemID: m.detail.ID, Start: ch.Start}
}
