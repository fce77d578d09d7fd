package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/engine"
)

// openCmd opens a remote session in the background.
func openCmd(remote Remote, timeout time.Duration, requestID uint64, itemID string, seek float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ps, err := remote.OpenSession(ctx, itemID)
		return OpenedMsg{RequestID: requestID, ItemID: itemID, Seek: seek, Session: ps, Err: err}
	}
}

// closeCmd fires a close-sync. The result is only logged.
func closeCmd(remote Remote, timeout time.Duration, sessionID string, currentTime, duration float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := remote.CloseSession(ctx, sessionID, currentTime, duration)
		return ClosedMsg{SessionID: sessionID, Err: err}
	}
}

// watchEngine waits for the next pipeline event. It returns nil once the
// pipeline closes its channel, which ends the watch.
func watchEngine(gen uint64, ch <-chan engine.Event) tea.Cmd {
	return waitForChannel(ch, func(ev engine.Event, ok bool) tea.Msg {
		if !ok {
			return nil
		}
		return EngineEventMsg{Gen: gen, Event: ev}
	})
}

// waitForChannel creates a command that waits for a value from a channel and converts it to a message.
// onResult receives the value and a boolean indicating if the channel is still open (false means channel closed).
func waitForChannel[T any](ch <-chan T, onResult func(T, bool) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		result, ok := <-ch
		return onResult(result, ok)
	}
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
