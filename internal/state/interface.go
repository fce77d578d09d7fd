package state

import "time"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DeviceID() (string, error)
	GetSelection() (*Selection, error)
	SaveSelection(sel Selection)
	RecordListening(rec ListeningRecord) error
	RecentListening(limit int) ([]ListeningRecord, error)
	GetLastfmSession() (*LastfmSession, error)
	SaveLastfmSession(username, sessionKey string) error
	DeleteLastfmSession() error
	QueueScrobble(s QueuedScrobble) error
	QueuedScrobbles(maxAttempts int) ([]QueuedScrobble, error)
	ResolveScrobble(id int64) error
	FailScrobble(id int64, reason string) error
	DropStaleScrobbles(maxAttempts int, cutoff time.Time) (int64, error)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
