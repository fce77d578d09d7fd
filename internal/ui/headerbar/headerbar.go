// Package headerbar renders the top line: brand, view tabs and server.
package headerbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/shelf/internal/ui/render"
	"github.com/llehouerou/shelf/internal/ui/styles"
)

// Height is the fixed height of the header bar (single line).
const Height = 1

// Tab is one switchable view.
type Tab struct {
	Key  string
	Name string
	ID   string
}

// Tabs lists the views in display order.
var Tabs = []Tab{
	{"c", "Continue", "continue"},
	{"h", "History", "history"},
}

// Render returns the header for the given width. active is a Tab ID and
// server is shown on the right, usually the server host.
func Render(active, server string, width int) string {
	if width < 20 {
		return ""
	}
	t := styles.T()

	activeStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.FgSubtle)
	nameStyle := lipgloss.NewStyle().Foreground(t.FgMuted)

	parts := make([]string, 0, len(Tabs))
	for _, tab := range Tabs {
		name := nameStyle.Render(tab.Name)
		if tab.ID == active {
			name = activeStyle.Render(tab.Name)
		}
		parts = append(parts, keyStyle.Render(tab.Key)+" "+name)
	}

	left := styles.Brand("shelf") + "  " + strings.Join(parts, keyStyle.Render(" │ "))
	right := ""
	if server != "" {
		right = t.S().Subtle.Render(render.Clip(server, max(width/3, 8)))
	}
	return render.Truncate(render.Row(left, right, width), width)
}
