package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/cover"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/lastfm"
	"github.com/llehouerou/shelf/internal/mpris"
	"github.com/llehouerou/shelf/internal/session"
	"github.com/llehouerou/shelf/internal/state"
	"github.com/llehouerou/shelf/internal/ui"
	"github.com/llehouerou/shelf/internal/ui/list"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.publish()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LibraryMessage:
		return m.handleLibraryMsg(msg)

	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn(errmsg.Format(errmsg.OpHistoryLoad, msg.Err))
			return m, nil
		}
		m.history = msg.Records
		return m, nil

	case session.StartedMsg:
		return m.handleSessionStarted(msg)

	case session.EndedMsg:
		return m.handleSessionEnded(msg)

	case cover.LoadedMsg:
		return m.handleCoverLoaded(msg)

	case mpris.CommandMsg:
		return m.handleMPRIS(msg)

	case lastfm.NowPlayingResultMsg, lastfm.ScrobbleResultMsg,
		lastfm.RetryPendingMsg, lastfm.RetryResultMsg:
		return m.handleLastfmMsg(msg)
	}

	if m.view == ViewLibrary && m.browser.Searching() {
		// cursor blinks
		_, cmd := m.browser.Update(msg)
		return m, tea.Batch(cmd, m.session.Update(msg))
	}
	return m, m.session.Update(msg)
}

// busy reports whether a spinner should turn.
func (m Model) busy() bool {
	return m.loading || m.session.Starting() || m.resolving != "" ||
		m.browser.loading || m.browser.opening != ""
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// the search prompt takes every key but the interrupt
	if m.view == ViewLibrary && m.browser.Searching() && msg.Type != tea.KeyCtrlC {
		return m.handleBrowserKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Sequence(m.session.Shutdown(quitTimeout), tea.Quit)

	case key.Matches(msg, m.keys.Toggle):
		m.session.TogglePlayPause()
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.session.SeekRelative(-float64(m.playback.SkipSeconds))
		return m, nil

	case key.Matches(msg, m.keys.Forward):
		m.session.SeekRelative(float64(m.playback.SkipSeconds))
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.resolving = ""
		return m, m.session.Stop()

	case key.Matches(msg, m.keys.VolUp):
		m.session.AdjustVolume(volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.VolDown):
		m.session.AdjustVolume(-volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		cmd := tea.Batch(m.spinner.Tick, loadItemsCmd(m.library, m.requestTimeout), loadHistoryCmd(m.store))
		if m.view == ViewLibrary {
			var libCmd tea.Cmd
			m, libCmd = m.reloadLibrary()
			cmd = tea.Batch(cmd, libCmd)
		}
		return m, cmd

	case key.Matches(msg, m.keys.Library):
		return m.showLibrary()

	case key.Matches(msg, m.keys.History):
		m.setView(m.toggledView())
		return m, nil

	case key.Matches(msg, m.keys.Continue):
		m.setView(ViewContinue)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	}

	switch m.view {
	case ViewLibrary:
		return m.handleBrowserKey(msg)
	case ViewHistory:
		return m, nil
	case ViewContinue:
	}
	res := m.books.Update(msg)
	switch res.Action {
	case list.ActionEnter:
		item, ok := m.books.Selected()
		if !ok {
			return m, nil
		}
		return m.startBook(item.ID)
	case list.ActionMoved:
		if item, ok := m.books.Selected(); ok {
			m.store.SaveSelection(state.Selection{ItemID: item.ID, View: string(m.view)})
		}
	case list.ActionNone:
	}
	return m, nil
}

func (m Model) toggledView() ViewMode {
	if m.view == ViewHistory {
		return ViewContinue
	}
	return ViewHistory
}

func (m *Model) setView(v ViewMode) {
	m.view = v
	sel := state.Selection{View: string(v)}
	if v == ViewLibrary {
		if item, ok := m.browser.Selected(); ok {
			sel.ItemID = item.ID
		}
	} else if item, ok := m.books.Selected(); ok {
		sel.ItemID = item.ID
	}
	m.store.SaveSelection(sel)
}

// startBook resolves the stored progress of itemID, then opens its session.
func (m Model) startBook(itemID string) (Model, tea.Cmd) {
	m.live.err = ""
	m.resolving = itemID
	return m, tea.Batch(m.spinner.Tick, loadProgressCmd(m.library, m.requestTimeout, itemID))
}

func (m Model) handleLibraryMsg(msg LibraryMessage) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ItemsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("items in progress failed")
			m.listErr = errmsg.Format(errmsg.OpLoadInProgress, msg.Err)
			return m, nil
		}
		m.listErr = ""
		m.books.SetItems(msg.Items)
		if !m.restored {
			m.restored = true
			m.restoreSelection()
			if m.view == ViewLibrary {
				return m.reloadLibrary()
			}
		}
		return m, nil

	case LibraryLoadedMsg:
		return m.handleLibraryLoaded(msg)

	case ItemLoadedMsg:
		return m.handleItemLoaded(msg)

	case ProgressResolvedMsg:
		if msg.ItemID != m.resolving {
			return m, nil
		}
		m.resolving = ""
		switch {
		case msg.Err != nil:
			m.log.WithError(msg.Err).WithField("item", msg.ItemID).
				Warn(errmsg.Format(errmsg.OpLoadProgress, msg.Err))
			return m, m.session.Start(msg.ItemID)
		case msg.Progress == nil:
			return m, m.session.Start(msg.ItemID)
		case msg.Progress.IsFinished:
			return m, m.session.StartAt(msg.ItemID, 0)
		default:
			return m, m.session.StartAt(msg.ItemID, msg.Progress.CurrentTime)
		}
	}
	return m, nil
}

func (m *Model) restoreSelection() {
	sel, err := m.store.GetSelection()
	if err != nil || sel == nil {
		return
	}
	switch ViewMode(sel.View) {
	case ViewLibrary:
		m.view = ViewLibrary
		m.browser.restore = sel.ItemID
		return
	case ViewHistory:
		m.view = ViewHistory
	case ViewContinue:
	}
	m.books.Select(sel.ItemID)
}

func (m Model) handleMPRIS(msg mpris.CommandMsg) (Model, tea.Cmd) {
	switch msg.Action {
	case mpris.ActionPlay:
		m.session.Play()
	case mpris.ActionPause:
		m.session.Pause()
	case mpris.ActionToggle:
		m.session.TogglePlayPause()
	case mpris.ActionStop:
		return m, m.session.Stop()
	case mpris.ActionSeek:
		m.session.SeekRelative(msg.Offset.Seconds())
	case mpris.ActionSetPosition:
		m.session.Seek(msg.Position.Seconds())
	}
	return m, nil
}

// resize lays the list out between the header and the bottom bars.
func (m *Model) resize() {
	bottom := m.bottomHeight()
	listHeight := max(m.height-1-bottom-ui.PanelOverhead, 1)
	m.books.SetSize(max(m.width-4, 10), listHeight)
	m.browser.SetSize(max(m.width-4, 10), listHeight)
}
