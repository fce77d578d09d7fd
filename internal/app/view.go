package app

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/state"
	"github.com/llehouerou/shelf/internal/ui"
	"github.com/llehouerou/shelf/internal/ui/headerbar"
	"github.com/llehouerou/shelf/internal/ui/playerbar"
	"github.com/llehouerou/shelf/internal/ui/render"
	"github.com/llehouerou/shelf/internal/ui/styles"
)

// View renders the application UI.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	bar := m.playerBarState()
	helpView := m.help.View(m.keys)
	bottom := playerbar.Height(bar) + strings.Count(helpView, "\n") + 1
	panelHeight := max(m.height-headerbar.Height-bottom, ui.PanelOverhead+1)

	var panel string
	switch m.view {
	case ViewHistory:
		panel = m.renderHistory(panelHeight)
	case ViewLibrary:
		panel = m.renderLibrary(panelHeight)
	case ViewContinue:
		panel = m.renderBooks(panelHeight)
	}

	parts := []string{headerbar.Render(string(m.view), m.server, m.width), panel}
	if out := playerbar.Render(bar, m.width); out != "" {
		parts = append(parts, out)
	}
	parts = append(parts, " "+helpView)
	return strings.Join(parts, "\n")
}

// bottomHeight estimates the rows below the panel for list paging.
func (m Model) bottomHeight() int {
	return playerbar.Height(m.playerBarState()) + strings.Count(m.help.View(m.keys), "\n") + 1
}

func (m Model) panel(title string, body string, height int) string {
	st := styles.T().S()
	inner := max(m.width-4, 10)
	content := st.Title.Render(title) + "\n" + st.Subtle.Render(render.Separator(inner)) + "\n" + body
	return st.Panel.Padding(0, 1).Width(m.width - 2).Height(height - ui.BorderHeight).Render(content)
}

func (m Model) renderBooks(height int) string {
	st := styles.T().S()
	title := "Continue listening"
	if n := m.books.Len(); n > 0 {
		title += st.Muted.Render(fmt.Sprintf("  %d", n))
	}

	var body string
	switch {
	case m.loading && m.books.Len() == 0:
		body = m.spinner.View() + st.Muted.Render(" Loading books…")
	case m.listErr != "":
		body = st.Error.Render(render.Clip(m.listErr, m.width-4))
	case m.books.Len() == 0:
		body = st.Muted.Render("Nothing in progress. Start a book on the server, then press r.")
	default:
		books := m.books
		books.SetSize(max(m.width-4, 10), max(height-ui.PanelOverhead, 1))
		current := m.session.Snapshot().Session.ItemID
		body = books.View(func(it abs.LibraryItem, width int, selected bool) string {
			return bookRow(it, width, selected, it.ID == current)
		})
	}
	return m.panel(title, body, height)
}

func (m Model) renderLibrary(height int) string {
	st := styles.T().S()

	var body string
	switch {
	case m.browser.loading && !m.browser.loaded:
		body = m.spinner.View() + st.Muted.Render(" Loading library…")
	case m.browser.err != "" && !m.browser.loaded:
		body = st.Error.Render(render.Clip(m.browser.err, m.width-4))
	default:
		b := m.browser.Model
		b.SetSize(max(m.width-4, 10), max(height-ui.PanelOverhead, 1))
		body = b.View(m.session.Snapshot().Session.ItemID)
	}

	title := m.browser.Title()
	if m.browser.opening != "" {
		title += "  " + m.spinner.View()
	}
	return m.panel(title, body, height)
}

func bookRow(it abs.LibraryItem, width int, selected, current bool) string {
	st := styles.T().S()

	marker := "  "
	if current {
		marker = "▶ "
	}
	pct := fmt.Sprintf("%3d%%", int(it.Progress()*100))
	titleWidth := max((width-len(marker)-len(pct)-2)*3/5, 8)
	authorWidth := max(width-len(marker)-len(pct)-2-titleWidth-1, 0)

	line := marker + render.Fit(it.Title(), titleWidth) + " " +
		st.Muted.Render(render.Fit(it.Author(), authorWidth)) + "  " + st.Subtle.Render(pct)

	switch {
	case selected:
		return st.Cursor.Render(render.Pad(line, width))
	case current:
		return st.Playing.Render(marker) + line[len(marker):]
	}
	return line
}

func (m Model) renderHistory(height int) string {
	st := styles.T().S()
	inner := max(m.width-4, 10)
	rows := max(height-ui.PanelOverhead, 1)

	var lines []string
	if len(m.history) == 0 {
		lines = append(lines, st.Muted.Render("No listening history yet."))
	}
	for i, rec := range m.history {
		if i >= rows {
			break
		}
		lines = append(lines, m.historyRow(rec, inner))
	}
	return m.panel("History", strings.Join(lines, "\n"), height)
}

func (m Model) historyRow(rec state.ListeningRecord, width int) string {
	st := styles.T().S()

	when := humanize.RelTime(rec.ClosedAt, m.now(), "ago", "from now")
	reached := playerbar.FormatClock(secondsToDuration(rec.Position))
	if rec.Duration > 0 {
		reached += fmt.Sprintf(" / %s (%d%%)", playerbar.FormatClock(secondsToDuration(rec.Duration)), int(rec.Progress()*100))
	}
	badge := " "
	if rec.Finished {
		badge = st.Success.Render("✓")
	}

	right := st.Muted.Render(reached) + "  " + st.Subtle.Render(render.Pad(when, 14))
	left := badge + " " + render.Clip(rec.Title, max(width-30-len(reached), 8))
	return render.Truncate(render.Row(left, right, width), width)
}

func (m Model) playerBarState() playerbar.State {
	snap := m.session.Snapshot()
	s := playerbar.State{Error: m.live.err}

	switch {
	case snap.Active:
		s.Title = snap.Session.Title
		s.Author = snap.Session.Author
		s.Position = snap.Position()
		s.Duration = snap.Length()
		s.BufferLevel = snap.BufferLevel
		s.Remaining = snap.Left()
		s.Volume = snap.Volume
		switch snap.State {
		case engine.Playing:
			s.Status = playerbar.StatusPlaying
		case engine.Paused:
			s.Status = playerbar.StatusPaused
		case engine.Buffering:
			s.Status = playerbar.StatusBuffering
			s.HeldByUser = snap.PauseReason == engine.PauseUser
		case engine.Idle, engine.Finished, engine.Error:
			s.Status = playerbar.StatusIdle
		}
	case snap.Starting || m.resolving != "":
		s.Status = playerbar.StatusStarting
		id := snap.PendingItem
		if id == "" {
			id = m.resolving
		}
		s.Title = m.titleOf(id)
	}
	return s
}

// titleOf looks a book up in the loaded lists.
func (m Model) titleOf(itemID string) string {
	for _, it := range m.books.Items() {
		if it.ID == itemID {
			return it.Title()
		}
	}
	if it, ok := m.browser.Find(itemID); ok {
		return it.Title()
	}
	return ""
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// serverHost returns the host part of a server URL for display.
func serverHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
