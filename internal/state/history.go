package state

import (
	"context"
	"database/sql"
	"time"

	dbutil "github.com/llehouerou/shelf/internal/db"
)

// maxHistory bounds the listening_history table.
const maxHistory = 200

// ListeningRecord is one retired session.
type ListeningRecord struct {
	ID        int64
	ItemID    string
	SessionID string
	Title     string
	Author    string
	Position  float64 // seconds
	Duration  float64 // seconds, 0 when unknown
	Finished  bool
	Reason    string
	StartedAt time.Time
	ClosedAt  time.Time
}

// Progress returns the fraction of the book reached, in [0, 1].
func (r ListeningRecord) Progress() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return min(max(r.Position/r.Duration, 0), 1)
}

// RecordListening appends a record and prunes the oldest beyond the limit.
func (m *Manager) RecordListening(rec ListeningRecord) error {
	if rec.ClosedAt.IsZero() {
		rec.ClosedAt = m.now()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.ClosedAt
	}

	return dbutil.WithTx(context.Background(), m.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO listening_history
			(item_id, session_id, title, author, position, duration, finished, reason, started_at, closed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ItemID, rec.SessionID, rec.Title, dbutil.NullString(rec.Author),
			rec.Position, rec.Duration, rec.Finished, rec.Reason,
			rec.StartedAt.Unix(), rec.ClosedAt.Unix())
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			DELETE FROM listening_history
			WHERE id NOT IN (
				SELECT id FROM listening_history ORDER BY closed_at DESC, id DESC LIMIT ?
			)
		`, maxHistory)
		return err
	})
}

// RecentListening returns up to limit records, newest first.
func (m *Manager) RecentListening(limit int) ([]ListeningRecord, error) {
	rows, err := m.db.Query(`
		SELECT id, item_id, session_id, title, author, position, duration, finished, reason, started_at, closed_at
		FROM listening_history
		ORDER BY closed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ListeningRecord
	for rows.Next() {
		var r ListeningRecord
		var author sql.NullString
		var duration sql.NullFloat64
		var startedAt, closedAt int64

		err := rows.Scan(&r.ID, &r.ItemID, &r.SessionID, &r.Title, &author,
			&r.Position, &duration, &r.Finished, &r.Reason, &startedAt, &closedAt)
		if err != nil {
			return nil, err
		}

		r.Author = dbutil.NullStringValue(author)
		r.Duration = dbutil.NullFloat64Value(duration)
		r.StartedAt = time.Unix(startedAt, 0)
		r.ClosedAt = time.Unix(closedAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}
