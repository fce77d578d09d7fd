//go:build linux

package mpris

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

// Adapter exposes the listening session over MPRIS.
type Adapter struct {
	core   *core
	server *server.Server
}

// New creates and starts an MPRIS adapter. Desktop requests are delivered
// as CommandMsg through send, usually tea.Program.Send.
func New(send func(tea.Msg)) (*Adapter, error) {
	c := newCore(send)
	a := &Adapter{core: c}
	a.server = server.NewServer("shelf", &rootAdapter{}, &playerAdapter{core: c})

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Publish replaces the status reported to desktop controllers.
func (a *Adapter) Publish(s Status) {
	a.core.publish(s)
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error            { return nil }
func (r *rootAdapter) Quit() error             { return nil }
func (r *rootAdapter) CanQuit() (bool, error)  { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Shelf", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https", "http"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp4", "audio/x-m4b"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	core *core
}

// A single book has no next or previous track.
func (p *playerAdapter) Next() error     { return nil }
func (p *playerAdapter) Previous() error { return nil }

func (p *playerAdapter) Pause() error {
	return p.core.dispatch(CommandMsg{Action: ActionPause})
}

func (p *playerAdapter) PlayPause() error {
	return p.core.dispatch(CommandMsg{Action: ActionToggle})
}

func (p *playerAdapter) Stop() error {
	return p.core.dispatch(CommandMsg{Action: ActionStop})
}

func (p *playerAdapter) Play() error {
	return p.core.dispatch(CommandMsg{Action: ActionPlay})
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.core.dispatch(CommandMsg{
		Action: ActionSeek,
		Offset: time.Duration(offset) * time.Microsecond,
	})
}

func (p *playerAdapter) SetPosition(id string, position types.Microseconds) error {
	s := p.core.snapshot()
	if s.ItemID == "" || id != trackID(s.ItemID) {
		return nil
	}
	return p.core.dispatch(CommandMsg{
		Action:   ActionSetPosition,
		Position: time.Duration(position) * time.Microsecond,
	})
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.core.snapshot().Playback {
	case Playing:
		return types.PlaybackStatusPlaying, nil
	case Paused:
		return types.PlaybackStatusPaused, nil
	case Stopped:
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error)    { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error   { return nil }
func (p *playerAdapter) Volume() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s := p.core.snapshot()
	if s.ItemID == "" {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(trackID(s.ItemID)),
		Length:  types.Microseconds(s.Length.Microseconds()),
		Title:   s.Title,
		Album:   s.Title,
	}
	if s.Author != "" {
		meta.Artist = []string{s.Author}
	}
	if s.ArtPath != "" {
		meta.ArtUrl = "file://" + s.ArtPath
	}
	return meta, nil
}

func (p *playerAdapter) Position() (int64, error) {
	s := p.core.snapshot()
	return s.CurrentPosition(p.core.now()).Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error)     { return false, nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return false, nil }

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.core.snapshot().ItemID != "", nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.core.snapshot().Playback == Playing, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.core.snapshot().Playback != Stopped, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}
