// Package state persists local client state in a sqlite database under the
// XDG data directory: the install's device id, listening history, the list
// selection, the Last.fm link and the scrobble retry queue.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "shelf"
	dbFileName = "shelf.db"

	// busyTimeout lets `shelf lastfm` write while the player holds the file.
	busyTimeout = 5 * time.Second
)

type Manager struct {
	db  *sql.DB
	sel debouncer
	now func() time.Time
}

// Open opens the database in the XDG data directory.
func Open() (*Manager, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("locate state db: %w", err)
	}
	return OpenPath(path)
}

// OpenPath opens the database at path, creating the file and schema on
// first use.
func OpenPath(path string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Manager{db: db, now: time.Now}, nil
}

// Close writes a selection still waiting on its debounce, then closes the
// database.
func (m *Manager) Close() error {
	var flushErr error
	if sel, ok := m.sel.take(); ok {
		flushErr = saveSelection(m.db, sel)
	}
	return errors.Join(flushErr, m.db.Close())
}

// DB exposes the handle for tests and maintenance.
func (m *Manager) DB() *sql.DB { return m.db }
