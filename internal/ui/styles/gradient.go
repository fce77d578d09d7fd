package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Gradient colors each grapheme of text along a blend from one hex color
// to another. Non-hex colors render the whole text in from.
func Gradient(text string, from, to lipgloss.Color, bold bool) string {
	if text == "" {
		return ""
	}
	base := lipgloss.NewStyle().Bold(bold)

	var clusters []string
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}

	c1, err1 := colorful.Hex(string(from))
	c2, err2 := colorful.Hex(string(to))
	if len(clusters) < 2 || err1 != nil || err2 != nil {
		return base.Foreground(from).Render(text)
	}

	var b strings.Builder
	last := float64(len(clusters) - 1)
	for i, cl := range clusters {
		hex := c1.BlendHcl(c2, float64(i)/last).Clamped().Hex()
		b.WriteString(base.Foreground(lipgloss.Color(hex)).Render(cl))
	}
	return b.String()
}

// Brand renders the application name with the theme gradient.
func Brand(name string) string {
	t := T()
	return Gradient(name, t.Primary, t.Secondary, true)
}
