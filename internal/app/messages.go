package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/state"
)

// LibraryMessage is implemented by messages about the continue-listening list.
type LibraryMessage interface {
	tea.Msg
	libraryMessage()
}

// ItemsLoadedMsg carries the books in progress.
type ItemsLoadedMsg struct {
	Items []abs.LibraryItem
	Err   error
}

func (ItemsLoadedMsg) libraryMessage() {}

// ProgressResolvedMsg carries the stored progress of a book about to start.
// Progress is nil when the server has none.
type ProgressResolvedMsg struct {
	ItemID   string
	Progress *abs.MediaProgress
	Err      error
}

func (ProgressResolvedMsg) libraryMessage() {}

// LibraryLoadedMsg carries every book of the first library.
type LibraryLoadedMsg struct {
	LibraryID string
	Items     []abs.LibraryItem
	Err       error
}

func (LibraryLoadedMsg) libraryMessage() {}

// ItemLoadedMsg carries an expanded book, for its chapter list.
type ItemLoadedMsg struct {
	ItemID string
	Item   *abs.LibraryItem
	Err    error
}

func (ItemLoadedMsg) libraryMessage() {}

// HistoryLoadedMsg carries the most recent listening records.
type HistoryLoadedMsg struct {
	Records []state.ListeningRecord
	Err     error
}
