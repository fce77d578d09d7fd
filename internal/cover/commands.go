package cover

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LoadedMsg reports the result of LoadCmd.
type LoadedMsg struct {
	ItemID string
	Path   string
	Err    error
}

// LoadCmd resolves the cover of itemID in the background.
func LoadCmd(c *Cache, itemID string, timeout time.Duration) tea.Cmd {
	if c == nil || itemID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		path, err := c.Path(ctx, itemID)
		return LoadedMsg{ItemID: itemID, Path: path, Err: err}
	}
}
