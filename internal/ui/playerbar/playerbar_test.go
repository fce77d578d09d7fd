package playerbar

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-5 * time.Second, "0:00"},
		{65 * time.Second, "1:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:01"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatClock(tt.in))
		})
	}
}

func TestRender_Hidden(t *testing.T) {
	assert.Empty(t, Render(State{}, 80))
	assert.Equal(t, 0, Height(State{}))
}

func TestRender_Statuses(t *testing.T) {
	base := State{
		Title:    "Dune",
		Author:   "Frank Herbert",
		Position: 30 * time.Minute,
		Duration: time.Hour,
	}

	tests := []struct {
		name   string
		mutate func(*State)
		want   []string
		height int
	}{
		{"playing", func(s *State) { s.Status = StatusPlaying }, []string{"Dune", "Frank Herbert", "playing", "30:00 / 1:00:00", "50%"}, 4},
		{"paused", func(s *State) { s.Status = StatusPaused }, []string{"paused", pauseSymbol}, 4},
		{"buffering", func(s *State) { s.Status = StatusBuffering; s.BufferLevel = 42 }, []string{"buffering 42%"}, 4},
		{"held during buffering", func(s *State) {
			s.Status = StatusBuffering
			s.BufferLevel = 10
			s.HeldByUser = true
		}, []string{"paused · buffering 10%"}, 4},
		{"time left and volume", func(s *State) {
			s.Status = StatusPlaying
			s.Remaining = 30 * time.Minute
			s.Volume = 70
		}, []string{"30:00 left · vol 70% · playing"}, 4},
		{"starting", func(s *State) { s.Status = StatusStarting }, []string{"Opening Dune"}, 4},
		{"error only", func(s *State) {
			s.Status = StatusIdle
			s.Error = "Failed to start listening session: server error"
		}, []string{"Failed to start listening session"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			out := ansi.Strip(Render(s, 100))
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			assert.Equal(t, tt.height, Height(s))
			assert.Len(t, strings.Split(out, "\n"), tt.height)
		})
	}
}

func TestRender_FullVolumeHidden(t *testing.T) {
	out := ansi.Strip(Render(State{Status: StatusPaused, Title: "Dune", Volume: 100}, 100))
	assert.Contains(t, out, "paused")
	assert.NotContains(t, out, "vol")
}

func TestRender_FitsWidth(t *testing.T) {
	s := State{
		Status:   StatusPlaying,
		Title:    strings.Repeat("Very Long Title ", 10),
		Author:   "Someone",
		Position: time.Minute,
		Duration: 10 * time.Hour,
	}
	for _, line := range strings.Split(Render(s, 60), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 60)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		pos, dur time.Duration
		filled   int
		half     bool
	}{
		{"empty", 0, time.Minute, 0, false},
		{"half", 30 * time.Second, time.Minute, 5, false},
		{"half cell", 33 * time.Second, time.Minute, 5, true},
		{"unknown duration", time.Minute, 0, 0, false},
		{"overflow clamped", 2 * time.Minute, time.Minute, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ansi.Strip(ProgressBar(tt.pos, tt.dur, 10))
			assert.Equal(t, tt.filled, strings.Count(bar, "━"))
			assert.Equal(t, tt.half, strings.Contains(bar, "╸"))
			assert.Equal(t, 10, ansi.StringWidth(bar))
		})
	}
}
