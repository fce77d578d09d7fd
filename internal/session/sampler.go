package session

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/engine"
)

// progressTick schedules the next position sample for generation gen.
func progressTick(gen uint64, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return ProgressTickMsg{Gen: gen}
	})
}

// handleProgressTick samples the engine position while playing. A tick from
// an older generation is dropped without re-arming, which ends that loop.
func (c *Controller) handleProgressTick(msg ProgressTickMsg) tea.Cmd {
	if msg.Gen != c.gen || c.session == nil {
		return nil
	}

	if c.engine.State() == engine.Playing {
		t := c.engine.Position().Seconds()
		c.session.CurrentTime = t
		c.observer.OnPositionTick(t, FormatTime(t))
	}

	return progressTick(c.gen, c.opts.ProgressInterval)
}

// FormatTime renders seconds as h:mm:ss, or m:ss under an hour.
func FormatTime(secs float64) string {
	total := int(max(secs, 0))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
