package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DeviceID returns the id this install reports to the server, creating it
// on first use.
func (m *Manager) DeviceID() (string, error) {
	var id string
	err := m.db.QueryRow(`SELECT device_id FROM device WHERE id = 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	id = uuid.NewString()
	_, err = m.db.Exec(`
		INSERT INTO device (id, device_id, created_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, m.now().Unix())
	if err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}

	// Another process may have won the insert.
	if err := m.db.QueryRow(`SELECT device_id FROM device WHERE id = 1`).Scan(&id); err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	return id, nil
}
