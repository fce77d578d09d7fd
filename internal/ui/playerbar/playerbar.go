// Package playerbar renders the bottom bar showing the listening session.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/llehouerou/shelf/internal/ui/render"
	"github.com/llehouerou/shelf/internal/ui/styles"
)

// Status is what the bar shows about the transport.
type Status int

const (
	StatusIdle Status = iota
	StatusStarting
	StatusBuffering
	StatusPlaying
	StatusPaused
)

// State holds everything needed to render the player bar.
type State struct {
	Status      Status
	Title       string
	Author      string
	Position    time.Duration
	Duration    time.Duration
	Remaining   time.Duration
	BufferLevel int
	Volume      int // percent; 0 or 100 hides the indicator
	// HeldByUser is set when the user paused during a stall, so refill will
	// not resume playback.
	HeldByUser bool
	// Error is an inline message from the last failed start or fault.
	Error string
}

// Visible reports whether the bar has anything to show.
func (s State) Visible() bool {
	return s.Status != StatusIdle || s.Error != ""
}

// Height returns the rendered height of the bar including borders.
func Height(s State) int {
	if !s.Visible() {
		return 0
	}
	lines := 0
	if s.Status != StatusIdle {
		lines += 2
	}
	if s.Error != "" {
		lines++
	}
	return lines + 2
}

// Render returns the player bar for the given width, or "" when idle
// without an error.
func Render(s State, width int) string {
	if !s.Visible() {
		return ""
	}
	inner := max(width-6, 10)
	st := styles.T().S()

	var lines []string
	switch s.Status {
	case StatusIdle:
	case StatusStarting:
		title := s.Title
		if title == "" {
			title = "book"
		}
		lines = append(lines,
			st.Muted.Render(render.Clip("Opening "+title+"…", inner)),
			"",
		)
	default:
		lines = append(lines, headerLine(s, inner), progressLine(s, inner))
	}
	if s.Error != "" {
		lines = append(lines, st.Error.Render(render.Clip(s.Error, inner)))
	}

	return barStyle().Padding(0, 2).Width(width - 2).Render(strings.Join(lines, "\n"))
}

func headerLine(s State, width int) string {
	st := styles.T().S()
	badge := statusBadge(s)
	avail := max(width-ansi.StringWidth(badge)-2, 1)

	title := s.Title
	if title == "" {
		title = "Unknown title"
	}
	title = render.Clip(title, avail)
	left := st.Title.Render(title)
	if s.Author != "" {
		if rest := avail - ansi.StringWidth(title) - 3; rest > 3 {
			left += st.Muted.Render(" · " + render.Clip(s.Author, rest))
		}
	}
	return render.Row(left, st.Subtle.Render(badge), width)
}

// statusBadge joins the time left, a reduced volume and the transport status.
func statusBadge(s State) string {
	var parts []string
	if s.Remaining > 0 {
		parts = append(parts, FormatClock(s.Remaining)+" left")
	}
	if s.Volume > 0 && s.Volume < 100 {
		parts = append(parts, fmt.Sprintf("vol %d%%", s.Volume))
	}
	if t := transportBadge(s); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, " · ")
}

func transportBadge(s State) string {
	switch s.Status {
	case StatusBuffering:
		if s.HeldByUser {
			return fmt.Sprintf("paused · buffering %d%%", s.BufferLevel)
		}
		return fmt.Sprintf("buffering %d%%", s.BufferLevel)
	case StatusPaused:
		return "paused"
	case StatusPlaying:
		return "playing"
	case StatusIdle, StatusStarting:
	}
	return ""
}

func progressLine(s State, width int) string {
	symbol := pauseSymbol
	if s.Status == StatusPlaying {
		symbol = playSymbol
	}

	clock := FormatClock(s.Position)
	if s.Duration > 0 {
		clock += " / " + FormatClock(s.Duration)
	}
	pct := ""
	if s.Duration > 0 {
		pct = fmt.Sprintf("%3d%%", int(100*min(float64(s.Position)/float64(s.Duration), 1)))
	}

	fixed := ansi.StringWidth(symbol) + 2 + 2 + len(clock)
	if pct != "" {
		fixed += 2 + len(pct)
	}
	barWidth := width - fixed
	if barWidth < minBarWidth {
		return symbol + "  " + progressTimeStyle().Render(clock)
	}

	line := symbol + "  " + ProgressBar(s.Position, s.Duration, barWidth) + "  " + progressTimeStyle().Render(clock)
	if pct != "" {
		line += "  " + progressTimeStyle().Render(pct)
	}
	return line
}

// FormatClock renders d as h:mm:ss, or m:ss under an hour.
func FormatClock(d time.Duration) string {
	total := max(int(d/time.Second), 0)
	h, m, sec := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
