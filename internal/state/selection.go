package state

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	dbutil "github.com/llehouerou/shelf/internal/db"
)

const saveDebounce = 500 * time.Millisecond

// Selection is the list position restored on the next launch.
type Selection struct {
	ItemID string
	View   string // "continue" or "history"
}

// GetSelection returns the latest selection, including one not written yet,
// or nil on first run.
func (m *Manager) GetSelection() (*Selection, error) {
	if sel, ok := m.sel.peek(); ok {
		return &sel, nil
	}
	var (
		sel  Selection
		view sql.NullString
	)
	err := m.db.QueryRow(`SELECT item_id, view FROM selection_state WHERE id = 1`).Scan(&sel.ItemID, &view)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil //nolint:nilnil // first run
	case err != nil:
		return nil, err
	}
	sel.View = dbutil.NullStringValue(view)
	return &sel, nil
}

// SaveSelection records sel after saveDebounce without another save, so
// scrolling through the list writes once.
func (m *Manager) SaveSelection(sel Selection) {
	m.sel.put(sel, func(s Selection) { _ = saveSelection(m.db, s) })
}

func saveSelection(db *sql.DB, sel Selection) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO selection_state (id, item_id, view) VALUES (1, ?, ?)`,
		sel.ItemID, dbutil.NullString(sel.View))
	return err
}

// debouncer holds the newest selection until its timer fires or it is taken.
type debouncer struct {
	mu      sync.Mutex
	pending *Selection
	timer   *time.Timer
}

func (d *debouncer) put(sel Selection, write func(Selection)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = &sel
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(saveDebounce, func() {
		if s, ok := d.take(); ok {
			write(s)
		}
	})
}

func (d *debouncer) peek() (Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return Selection{}, false
	}
	return *d.pending, true
}

// take removes the pending selection and cancels its timer.
func (d *debouncer) take() (Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.pending == nil {
		return Selection{}, false
	}
	sel := *d.pending
	d.pending = nil
	return sel, true
}
