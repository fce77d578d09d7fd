package state

import (
	"slices"
	"sync"
	"time"
)

// Mock is a test double for Manager.
type Mock struct {
	mu        sync.Mutex
	deviceID  string
	selection *Selection
	history   []ListeningRecord
	lastfm    *LastfmSession
	queue     []QueuedScrobble
	nextID    int64
	recordErr error
	closed    bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{deviceID: "mock-device"}
}

func (m *Mock) DeviceID() (string, error) { return m.deviceID, nil }

func (m *Mock) GetSelection() (*Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection, nil
}

func (m *Mock) SaveSelection(sel Selection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = &sel
}

func (m *Mock) RecordListening(rec ListeningRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.nextID++
	rec.ID = m.nextID
	m.history = append([]ListeningRecord{rec}, m.history...)
	return nil
}

func (m *Mock) RecentListening(limit int) ([]ListeningRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.history) {
		limit = len(m.history)
	}
	return append([]ListeningRecord(nil), m.history[:limit]...), nil
}

func (m *Mock) GetLastfmSession() (*LastfmSession, error) { return m.lastfm, nil }

func (m *Mock) SaveLastfmSession(username, sessionKey string) error {
	m.lastfm = &LastfmSession{Username: username, SessionKey: sessionKey}
	return nil
}

func (m *Mock) DeleteLastfmSession() error {
	m.lastfm = nil
	return nil
}

func (m *Mock) QueueScrobble(s QueuedScrobble) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.queue {
		if q.ItemID == s.ItemID && q.ListenedAt.Equal(s.ListenedAt) {
			return nil
		}
	}
	m.nextID++
	s.ID = m.nextID
	s.Attempts = 0
	m.queue = append(m.queue, s)
	return nil
}

func (m *Mock) QueuedScrobbles(maxAttempts int) ([]QueuedScrobble, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []QueuedScrobble
	for _, q := range m.queue {
		if maxAttempts <= 0 || q.Attempts < maxAttempts {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *Mock) ResolveScrobble(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = slices.DeleteFunc(m.queue, func(q QueuedScrobble) bool { return q.ID == id })
	return nil
}

func (m *Mock) FailScrobble(id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.queue {
		if m.queue[i].ID == id {
			m.queue[i].Attempts++
			m.queue[i].LastError = reason
		}
	}
	return nil
}

func (m *Mock) DropStaleScrobbles(maxAttempts int, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.queue)
	m.queue = slices.DeleteFunc(m.queue, func(q QueuedScrobble) bool {
		return q.Attempts >= maxAttempts || q.ListenedAt.Before(cutoff)
	})
	return int64(before - len(m.queue)), nil
}

func (m *Mock) Close() error {
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetDeviceID(id string) { m.deviceID = id }

func (m *Mock) SetRecordError(err error) { m.recordErr = err }

func (m *Mock) History() []ListeningRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ListeningRecord(nil), m.history...)
}

func (m *Mock) IsClosed() bool { return m.closed }

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
