// Package librarybrowser provides the library view: every book of a library,
// sorted and narrowed by a search query, and the chapter list of an opened
// book.
package librarybrowser

import (
	"strconv"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/ui"
	"github.com/llehouerou/shelf/internal/ui/list"
	"github.com/llehouerou/shelf/internal/ui/textinput"
)

// Page is what the browser shows.
type Page int

const (
	PageBooks Page = iota
	PageChapters
)

// headerRows is the status line above either list.
const headerRows = 1

// Model is the library browser state.
type Model struct {
	ui.Size

	all      []abs.LibraryItem // deduplicated, in server order
	books    list.Model[abs.LibraryItem]
	chapters list.Model[abs.Chapter]
	detail   *abs.LibraryItem

	page   Page
	sort   SortMode
	search textinput.Model
}

// New creates an empty browser sorted by newest first.
func New() Model {
	return Model{
		books:    list.New(func(it abs.LibraryItem) string { return it.ID }),
		chapters: list.New(chapterKey),
		search:   textinput.New("title or author"),
	}
}

func chapterKey(ch abs.Chapter) string {
	return strconv.Itoa(ch.ID) + "@" + strconv.FormatFloat(ch.Start, 'f', 3, 64)
}

// SetSize updates the dimensions.
func (m *Model) SetSize(width, height int) {
	m.Size.SetSize(width, height)
	rows := max(height-headerRows, 1)
	m.books.SetSize(width, rows)
	m.chapters.SetSize(width, rows)
	m.search.SetWidth(width / 2)
}

// SetItems replaces the library contents. Repeated IDs are dropped.
func (m *Model) SetItems(items []abs.LibraryItem) {
	m.all = Dedupe(items)
	m.refresh()
}

// SetSort changes the order of the book list.
func (m *Model) SetSort(mode SortMode) {
	m.sort = mode
	m.refresh()
}

// Sort returns the current order.
func (m Model) Sort() SortMode { return m.sort }

// Query returns the search text narrowing the book list.
func (m Model) Query() string { return m.search.Value() }

// Searching reports whether the search prompt takes keys.
func (m Model) Searching() bool { return m.search.Active() }

// Page returns the visible page.
func (m Model) Page() Page { return m.page }

// Total returns the number of distinct books in the library.
func (m Model) Total() int { return len(m.all) }

// Visible returns the books left by the query, in display order.
func (m Model) Visible() []abs.LibraryItem { return m.books.Items() }

// Selected returns the book under the cursor.
func (m Model) Selected() (abs.LibraryItem, bool) { return m.books.Selected() }

// Select moves the book cursor to itemID.
func (m *Model) Select(itemID string) bool { return m.books.Select(itemID) }

// Find returns a loaded book by ID.
func (m Model) Find(itemID string) (abs.LibraryItem, bool) {
	for _, it := range m.all {
		if it.ID == itemID {
			return it, true
		}
	}
	return abs.LibraryItem{}, false
}

// SetDetail shows the chapters of item, with the cursor on the chapter the
// listener stopped in.
func (m *Model) SetDetail(item *abs.LibraryItem) {
	m.detail = item
	m.page = PageChapters
	m.chapters = list.New(chapterKey)
	m.chapters.SetSize(m.Width(), max(m.Height()-headerRows, 1))
	m.chapters.SetItems(item.Media.Chapters)

	pos, finished := item.ListenedTo()
	for _, ch := range item.Media.Chapters {
		if ProgressOf(ch, pos, finished) == ChapterCurrent {
			m.chapters.Select(chapterKey(ch))
			break
		}
	}
}

// Detail returns the opened book, or nil on the book page.
func (m Model) Detail() *abs.LibraryItem {
	if m.page != PageChapters {
		return nil
	}
	return m.detail
}

// CloseDetail returns to the book list.
func (m *Model) CloseDetail() {
	m.page = PageBooks
	m.detail = nil
}

func (m *Model) refresh() {
	m.books.SetItems(Arrange(m.all, m.sort, m.search.Value()))
}
