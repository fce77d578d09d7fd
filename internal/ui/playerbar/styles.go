package playerbar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/shelf/internal/ui/styles"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
)

func barStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.T().Border)
}

func progressBarFilled() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().Primary)
}

func progressBarEmpty() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().FgSubtle)
}

func progressTimeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().FgMuted)
}
