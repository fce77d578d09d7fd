package playerbar

import (
	"math"
	"strings"
	"time"

	"github.com/llehouerou/shelf/internal/ui/styles"
)

const minBarWidth = 5

// ProgressBar draws the listened share of the book in exactly width cells.
// The listened part carries the theme gradient and a half cell marks a
// remainder of at least half a cell.
func ProgressBar(position, duration time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	cells := 0.0
	if duration > 0 {
		cells = math.Min(math.Max(float64(width)*float64(position)/float64(duration), 0), float64(width))
	}
	filled := int(cells)
	half := filled < width && cells-float64(filled) >= 0.5

	t := styles.T()
	var b strings.Builder
	b.WriteString(styles.Gradient(strings.Repeat("━", filled), t.Primary, t.Secondary, false))
	empty := width - filled
	if half {
		b.WriteString(progressBarFilled().Render("╸"))
		empty--
	}
	b.WriteString(progressBarEmpty().Render(strings.Repeat("─", empty)))
	return b.String()
}
