//go:build !linux

package mpris

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Adapter exists so callers compile everywhere. New never returns one off
// linux.
type Adapter struct{}

// New fails: MPRIS needs a freedesktop session bus.
func New(func(tea.Msg)) (*Adapter, error) {
	return nil, errors.New("mpris is only supported on linux")
}

func (*Adapter) Publish(Status) {}

func (*Adapter) Close() error { return nil }
