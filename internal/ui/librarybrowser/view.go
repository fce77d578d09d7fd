package librarybrowser

import (
	"fmt"
	"time"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/ui/playerbar"
	"github.com/llehouerou/shelf/internal/ui/render"
	"github.com/llehouerou/shelf/internal/ui/styles"
)

// Title returns the panel title for the visible page.
func (m Model) Title() string {
	if m.page == PageChapters && m.detail != nil {
		return m.detail.Title()
	}
	if q := m.search.Value(); q != "" {
		return fmt.Sprintf("Library  %d of %d", m.books.Len(), len(m.all))
	}
	return fmt.Sprintf("Library  %d", len(m.all))
}

// View renders the visible page. current is the book of the live session.
func (m Model) View(current string) string {
	if m.page == PageChapters && m.detail != nil {
		return m.chaptersView()
	}
	return m.booksView(current)
}

func (m Model) booksView(current string) string {
	st := styles.T().S()
	w := m.Width()

	left := m.search.View()
	if !m.search.Active() && m.search.Value() == "" {
		left = st.Subtle.Render("/ search")
	}
	header := render.Row(left, st.Subtle.Render("sort: "+m.sort.String()+" (o)"), w)

	if m.books.Len() == 0 {
		msg := "This library is empty."
		if m.search.Value() != "" {
			msg = "No book matches “" + m.search.Value() + "”."
		}
		return header + "\n" + st.Muted.Render(msg)
	}
	return header + "\n" + m.books.View(func(it abs.LibraryItem, width int, selected bool) string {
		return bookRow(it, width, selected, it.ID == current)
	})
}

func bookRow(it abs.LibraryItem, width int, selected, current bool) string {
	st := styles.T().S()

	marker := "  "
	if current {
		marker = "▶ "
	}
	length := playerbar.FormatClock(seconds(it.Media.Duration))
	titleWidth := max((width-len(marker)-len(length)-2)*3/5, 8)
	authorWidth := max(width-len(marker)-len(length)-2-titleWidth-1, 0)

	line := marker + render.Fit(it.Title(), titleWidth) + " " +
		st.Muted.Render(render.Fit(it.Author(), authorWidth)) + "  " + st.Subtle.Render(length)
	if selected {
		return st.Cursor.Render(render.Pad(line, width))
	}
	return line
}

func (m Model) chaptersView() string {
	st := styles.T().S()
	pos, finished := m.detail.ListenedTo()

	header := st.Muted.Render(render.Clip(m.detail.Author(), m.Width()/2))
	header = render.Row(header, st.Subtle.Render("enter: listen from here · esc: back"), m.Width())
	if m.chapters.Len() == 0 {
		return header + "\n" + st.Muted.Render("This book has no chapters.")
	}

	number := make(map[string]int, m.chapters.Len())
	for i, ch := range m.chapters.Items() {
		number[chapterKey(ch)] = i + 1
	}
	return header + "\n" + m.chapters.View(func(ch abs.Chapter, width int, selected bool) string {
		length := playerbar.FormatClock(seconds(ch.Duration()))
		title := ch.Title
		if title == "" {
			title = "Chapter"
		}
		left := fmt.Sprintf("%3d  %s", number[chapterKey(ch)], title)
		line := render.Row(render.Clip(left, max(width-len(length)-2, 8)), length, width)
		if selected {
			return st.Cursor.Render(render.Pad(line, width))
		}
		switch ProgressOf(ch, pos, finished) {
		case ChapterFinished:
			return st.Success.Render(line)
		case ChapterUnreached:
			return st.Muted.Render(line)
		case ChapterCurrent:
			return st.Playing.Render(line)
		}
		return line
	})
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
