package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/state"
)

// historyLimit is how many retired sessions the history view shows.
const historyLimit = 20

func loadItemsCmd(lib Library, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := lib.ItemsInProgress(ctx)
		return ItemsLoadedMsg{Items: items, Err: err}
	}
}

func loadProgressCmd(lib Library, timeout time.Duration, itemID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := lib.MediaProgress(ctx, itemID)
		return ProgressResolvedMsg{ItemID: itemID, Progress: p, Err: err}
	}
}

// loadLibraryCmd fetches the books of the first library the user can see.
func loadLibraryCmd(lib Library, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		// paging through a large library takes several requests
		ctx, cancel := context.WithTimeout(context.Background(), 4*timeout)
		defer cancel()
		libs, err := lib.Libraries(ctx)
		if err != nil {
			return LibraryLoadedMsg{Err: err}
		}
		if len(libs) == 0 {
			return LibraryLoadedMsg{}
		}
		items, err := lib.LibraryItems(ctx, libs[0].ID)
		return LibraryLoadedMsg{LibraryID: libs[0].ID, Items: items, Err: err}
	}
}

func loadItemCmd(lib Library, timeout time.Duration, itemID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		item, err := lib.Item(ctx, itemID)
		return ItemLoadedMsg{ItemID: itemID, Item: item, Err: err}
	}
}

func loadHistoryCmd(store state.Interface) tea.Cmd {
	return func() tea.Msg {
		recs, err := store.RecentListening(historyLimit)
		return HistoryLoadedMsg{Records: recs, Err: err}
	}
}
