package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LastfmSession is the account linked with `shelf lastfm`.
type LastfmSession struct {
	Username   string
	SessionKey string
	LinkedAt   time.Time
}

// GetLastfmSession returns the linked account, or nil when none is linked.
func (m *Manager) GetLastfmSession() (*LastfmSession, error) {
	var (
		s        LastfmSession
		linkedAt int64
	)
	err := m.db.QueryRow(
		`SELECT username, session_key, linked_at FROM lastfm_session WHERE id = 1`,
	).Scan(&s.Username, &s.SessionKey, &linkedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil //nolint:nilnil // not linked
	case err != nil:
		return nil, fmt.Errorf("load last.fm session: %w", err)
	}
	s.LinkedAt = time.Unix(linkedAt, 0)
	return &s, nil
}

// SaveLastfmSession links an account, replacing any previous link.
func (m *Manager) SaveLastfmSession(username, sessionKey string) error {
	if sessionKey == "" {
		return errors.New("save last.fm session: empty session key")
	}
	_, err := m.db.Exec(`
		INSERT OR REPLACE INTO lastfm_session (id, username, session_key, linked_at)
		VALUES (1, ?, ?, ?)
	`, username, sessionKey, m.now().Unix())
	if err != nil {
		return fmt.Errorf("save last.fm session: %w", err)
	}
	return nil
}

// DeleteLastfmSession unlinks the account. Queued scrobbles are kept for the
// next link.
func (m *Manager) DeleteLastfmSession() error {
	if _, err := m.db.Exec(`DELETE FROM lastfm_session`); err != nil {
		return fmt.Errorf("delete last.fm session: %w", err)
	}
	return nil
}
