package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// syncTick schedules the next progress sync for generation gen.
func syncTick(gen uint64, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return SyncTickMsg{Gen: gen}
	})
}

// handleSyncTick re-arms the scheduler and dispatches a sync without
// waiting for it.
func (c *Controller) handleSyncTick(msg SyncTickMsg) tea.Cmd {
	if msg.Gen != c.gen || c.session == nil {
		return nil
	}
	s := c.session
	return tea.Batch(
		syncTick(c.gen, c.opts.SyncInterval),
		syncCmd(c.remote, c.opts.RequestTimeout, s.ID, s.CurrentTime, s.Duration),
	)
}

func syncCmd(remote Remote, timeout time.Duration, sessionID string, currentTime, duration float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := remote.SyncSession(ctx, sessionID, currentTime, duration)
		return SyncResultMsg{SessionID: sessionID, Err: err}
	}
}

func (c *Controller) handleSyncResult(msg SyncResultMsg) {
	log := c.log.WithField("session", msg.SessionID)
	if msg.Err != nil {
		log.WithError(msg.Err).WithField("kind", KindOf(msg.Err)).Warn("progress sync failed")
		return
	}
	log.Debug("progress synced")
}

func (c *Controller) handleClosed(msg ClosedMsg) {
	log := c.log.WithFields(logrus.Fields{"session": msg.SessionID})
	if msg.Err != nil {
		log.WithError(msg.Err).WithField("kind", KindOf(msg.Err)).Warn("session close failed")
		return
	}
	log.Debug("session closed")
}
