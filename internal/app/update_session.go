package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/shelf/internal/cover"
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/lastfm"
	"github.com/llehouerou/shelf/internal/mpris"
	"github.com/llehouerou/shelf/internal/notify"
	"github.com/llehouerou/shelf/internal/session"
	"github.com/llehouerou/shelf/internal/state"
)

func (m Model) handleSessionStarted(msg session.StartedMsg) (Model, tea.Cmd) {
	s := msg.Session
	m.coverPath = ""
	m.store.SaveSelection(state.Selection{ItemID: s.ItemID, View: string(m.view)})

	var cmds []tea.Cmd
	if m.covers != nil {
		cmds = append(cmds, cover.LoadCmd(m.covers, s.ItemID, m.requestTimeout))
	} else {
		m.notifyNowListening(s)
	}
	if m.scrobbling() {
		cmds = append(cmds, lastfm.NowPlayingCmd(m.scrobbler, lastfm.BookTrack(s.ItemID, s.Title, s.Author, s.Duration, s.StartedAt)))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleCoverLoaded(msg cover.LoadedMsg) (Model, tea.Cmd) {
	snap := m.session.Snapshot()
	if !snap.Active || snap.Session.ItemID != msg.ItemID {
		return m, nil
	}
	if msg.Err != nil {
		m.log.WithError(msg.Err).WithField("item", msg.ItemID).Debug(errmsg.Format(errmsg.OpCoverLoad, msg.Err))
	} else {
		m.coverPath = msg.Path
	}
	m.notifyNowListening(snap.Session)
	return m, nil
}

func (m Model) handleSessionEnded(msg session.EndedMsg) (Model, tea.Cmd) {
	s := msg.Session
	finished := msg.Reason == session.EndFinished

	rec := state.ListeningRecord{
		ItemID:    s.ItemID,
		SessionID: s.ID,
		Title:     s.Title,
		Author:    s.Author,
		Position:  s.CurrentTime,
		Duration:  s.Duration,
		Finished:  finished,
		Reason:    msg.Reason.String(),
		StartedAt: s.StartedAt,
		ClosedAt:  m.now(),
	}
	if err := m.store.RecordListening(rec); err != nil {
		m.log.WithError(err).WithField("session", s.ID).Warn(errmsg.Format(errmsg.OpHistorySave, err))
	} else {
		m.history = append([]state.ListeningRecord{rec}, m.history...)
		if len(m.history) > historyLimit {
			m.history = m.history[:historyLimit]
		}
	}

	icon := m.coverPath
	m.coverPath = ""

	var cmds []tea.Cmd
	switch msg.Reason {
	case session.EndFinished:
		m.notify(notify.Finished(s.Title, s.Author, icon))
		if m.scrobbling() {
			cmds = append(cmds, lastfm.ScrobbleCmd(m.scrobbler, m.store,
				lastfm.BookTrack(s.ItemID, s.Title, s.Author, s.Duration, s.StartedAt)))
		}
		// A finished book leaves the in-progress list.
		cmds = append(cmds, loadItemsCmd(m.library, m.requestTimeout))
	case session.EndFailed:
		m.notify(notify.PlaybackFailed(s.Title, m.live.err))
	case session.EndStopped:
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) notifyNowListening(s session.Session) {
	m.notify(notify.NowListening(s.Title, s.Author, session.FormatTime(s.CurrentTime), m.coverPath))
}

// notify shows n, replacing the previous notification of this session.
func (m *Model) notify(n notify.Notification) {
	if !m.notifyEnabled {
		return
	}
	n.ReplacesID = m.notifyID
	id, err := m.notifier.Notify(n)
	if err != nil {
		m.log.WithError(err).Debug(errmsg.Format(errmsg.OpNotifyConnect, err))
		return
	}
	m.notifyID = id
}

func (m Model) handleLastfmMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lastfm.NowPlayingResultMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Debug("now playing update failed")
		}
	case lastfm.ScrobbleResultMsg:
		log := m.log.WithField("track", msg.Track.Track)
		switch {
		case errors.Is(msg.Err, lastfm.ErrSessionRevoked):
			log.WithError(msg.Err).Warn(errmsg.Format(errmsg.OpScrobble, msg.Err))
		case msg.Queued:
			log.WithError(msg.Err).Info("scrobble queued for retry")
		case msg.Err != nil:
			log.WithError(msg.Err).Warn(errmsg.Format(errmsg.OpScrobble, msg.Err))
		default:
			log.Info("scrobbled")
		}
	case lastfm.RetryPendingMsg:
		if !m.scrobbling() {
			return m, nil
		}
		return m, tea.Batch(lastfm.RetryPendingCmd(m.scrobbler, m.store, m.now()), lastfm.RetryTickCmd())
	case lastfm.RetryResultMsg:
		log := m.log.WithFields(logrus.Fields{
			"succeeded": msg.Succeeded,
			"failed":    msg.Failed,
			"dropped":   msg.Dropped,
		})
		switch {
		case msg.Err != nil:
			log.WithError(msg.Err).Warn("scrobble retry stopped")
		case msg.Succeeded+msg.Failed > 0 || msg.Dropped > 0:
			log.Debug("queued scrobbles retried")
		}
	}
	return m, nil
}

// publish hands the current session status to the MPRIS adapter.
func (m Model) publish() {
	if m.mpris == nil {
		return
	}
	snap := m.session.Snapshot()
	if !snap.Active {
		m.mpris.Publish(mpris.Status{})
		return
	}

	st := mpris.Status{
		ItemID:   snap.Session.ItemID,
		Title:    snap.Session.Title,
		Author:   snap.Session.Author,
		ArtPath:  m.coverPath,
		Length:   snap.Length(),
		Position: snap.Position(),
		At:       m.now(),
	}
	switch snap.State {
	case engine.Playing:
		st.Playback = mpris.Playing
	case engine.Paused, engine.Buffering:
		st.Playback = mpris.Paused
	case engine.Idle, engine.Finished, engine.Error:
	}
	m.mpris.Publish(st)
}
