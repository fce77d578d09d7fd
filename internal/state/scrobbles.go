package state

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	dbutil "github.com/llehouerou/shelf/internal/db"
)

// QueuedScrobble is a finished book whose scrobble has not reached Last.fm.
// A book finished at a given time is queued at most once.
type QueuedScrobble struct {
	ID         int64
	ItemID     string
	Title      string
	Author     string
	Duration   float64 // seconds
	ListenedAt time.Time
	Attempts   int
	LastError  string
	QueuedAt   time.Time
}

// QueueScrobble stores s for a later retry. Queuing the same book and
// listening time twice is a no-op.
func (m *Manager) QueueScrobble(s QueuedScrobble) error {
	_, err := m.db.Exec(`
		INSERT OR IGNORE INTO scrobble_queue
			(item_id, title, author, duration, listened_at, last_error, queued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ItemID, s.Title, dbutil.NullString(s.Author), s.Duration, s.ListenedAt.Unix(),
		dbutil.NullString(s.LastError), m.now().Unix())
	if err != nil {
		return fmt.Errorf("queue scrobble: %w", err)
	}
	return nil
}

// QueuedScrobbles returns scrobbles with fewer than maxAttempts failures,
// oldest listen first. maxAttempts <= 0 returns everything.
func (m *Manager) QueuedScrobbles(maxAttempts int) ([]QueuedScrobble, error) {
	if maxAttempts <= 0 {
		maxAttempts = math.MaxInt
	}
	rows, err := m.db.Query(`
		SELECT id, item_id, title, author, duration, listened_at, attempts, last_error, queued_at
		FROM scrobble_queue
		WHERE attempts < ?
		ORDER BY listened_at, id
	`, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("load scrobble queue: %w", err)
	}
	defer rows.Close()

	var out []QueuedScrobble
	for rows.Next() {
		var (
			s                    QueuedScrobble
			author, lastErr      sql.NullString
			listenedAt, queuedAt int64
		)
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Title, &author, &s.Duration,
			&listenedAt, &s.Attempts, &lastErr, &queuedAt); err != nil {
			return nil, fmt.Errorf("scan queued scrobble: %w", err)
		}
		s.Author = dbutil.NullStringValue(author)
		s.LastError = dbutil.NullStringValue(lastErr)
		s.ListenedAt = time.Unix(listenedAt, 0)
		s.QueuedAt = time.Unix(queuedAt, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ResolveScrobble removes a scrobble that was accepted.
func (m *Manager) ResolveScrobble(id int64) error {
	if _, err := m.db.Exec(`DELETE FROM scrobble_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("resolve scrobble %d: %w", id, err)
	}
	return nil
}

// FailScrobble records a failed retry.
func (m *Manager) FailScrobble(id int64, reason string) error {
	_, err := m.db.Exec(
		`UPDATE scrobble_queue SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		dbutil.NullString(reason), id)
	if err != nil {
		return fmt.Errorf("fail scrobble %d: %w", id, err)
	}
	return nil
}

// DropStaleScrobbles deletes scrobbles that exhausted maxAttempts or were
// listened to before cutoff, and returns how many went.
func (m *Manager) DropStaleScrobbles(maxAttempts int, cutoff time.Time) (int64, error) {
	res, err := m.db.Exec(
		`DELETE FROM scrobble_queue WHERE attempts >= ? OR listened_at < ?`,
		maxAttempts, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("drop stale scrobbles: %w", err)
	}
	return res.RowsAffected()
}
