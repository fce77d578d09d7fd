package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/state"
	"github.com/llehouerou/shelf/internal/ui/librarybrowser"
)

// browserState is the library view plus the requests feeding it.
type browserState struct {
	librarybrowser.Model

	loading bool
	loaded  bool
	err     string
	// opening is the book whose chapters are being fetched.
	opening string
	// restore is a saved selection applied when the books arrive.
	restore string
}

// showLibrary switches to the library view, loading it the first time.
func (m Model) showLibrary() (Model, tea.Cmd) {
	m.setView(ViewLibrary)
	if m.browser.loaded || m.browser.loading {
		return m, nil
	}
	return m.reloadLibrary()
}

func (m Model) reloadLibrary() (Model, tea.Cmd) {
	m.browser.loading = true
	return m, tea.Batch(m.spinner.Tick, loadLibraryCmd(m.library, m.requestTimeout))
}

func (m Model) handleBrowserKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	act, cmd := m.browser.Update(msg)
	switch act.Kind {
	case librarybrowser.ActionOpen:
		m.browser.opening = act.ItemID
		return m, tea.Batch(cmd, m.spinner.Tick, loadItemCmd(m.library, m.requestTimeout, act.ItemID))
	case librarybrowser.ActionPlay:
		return m.startChapter(act.ItemID, act.Start)
	case librarybrowser.ActionMoved:
		m.store.SaveSelection(state.Selection{ItemID: act.ItemID, View: string(ViewLibrary)})
	case librarybrowser.ActionNone:
	}
	return m, cmd
}

// startChapter opens a session at a chapter start. The stored progress is
// not consulted: the listener chose the position.
func (m Model) startChapter(itemID string, start float64) (Model, tea.Cmd) {
	m.live.err = ""
	m.resolving = ""
	m.log.WithField("item", itemID).WithField("start", start).Debug("starting at chapter")
	return m, m.session.StartAt(itemID, start)
}

func (m Model) handleLibraryLoaded(msg LibraryLoadedMsg) (Model, tea.Cmd) {
	m.browser.loading = false
	if msg.Err != nil {
		m.log.WithError(msg.Err).Warn("library load failed")
		m.browser.err = errmsg.Format(errmsg.OpLoadLibrary, msg.Err)
		return m, nil
	}
	m.browser.err = ""
	m.browser.loaded = true
	m.browser.SetItems(msg.Items)
	if m.browser.restore != "" {
		m.browser.Select(m.browser.restore)
		m.browser.restore = ""
	}
	m.log.WithField("library", msg.LibraryID).WithField("books", m.browser.Total()).Info("library loaded")
	return m, nil
}

func (m Model) handleItemLoaded(msg ItemLoadedMsg) (Model, tea.Cmd) {
	if msg.ItemID != m.browser.opening {
		return m, nil
	}
	m.browser.opening = ""
	if msg.Err == nil && msg.Item == nil {
		return m, nil
	}
	if msg.Err != nil {
		m.log.WithError(msg.Err).WithField("item", msg.ItemID).Warn("chapter load failed")
		m.live.err = errmsg.Format(errmsg.OpLoadChapters, msg.Err)
		return m, nil
	}
	if m.view == ViewLibrary {
		m.browser.SetDetail(msg.Item)
	}
	return m, nil
}
