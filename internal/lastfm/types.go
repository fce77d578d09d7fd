package lastfm

import (
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/shelf/internal/state"
)

// ScrobbleTrack is a book as Last.fm sees it: the author is the artist and
// the title doubles as the album.
type ScrobbleTrack struct {
	ItemID    string // library item, never sent
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time // listening start
}

const unknownAuthor = "Unknown Author"

// BookTrack builds the ScrobbleTrack for a listening session.
func BookTrack(itemID, title, author string, durationSecs float64, startedAt time.Time) ScrobbleTrack {
	if author == "" {
		author = unknownAuthor
	}
	return ScrobbleTrack{
		ItemID:    itemID,
		Artist:    author,
		Track:     title,
		Album:     title,
		Duration:  time.Duration(durationSecs * float64(time.Second)),
		Timestamp: startedAt,
	}
}

func queuedTrack(q state.QueuedScrobble) ScrobbleTrack {
	return BookTrack(q.ItemID, q.Title, q.Author, q.Duration, q.ListenedAt)
}

func (t ScrobbleTrack) queued(lastErr error) state.QueuedScrobble {
	q := state.QueuedScrobble{
		ItemID:     t.ItemID,
		Title:      t.Track,
		Duration:   t.Duration.Seconds(),
		ListenedAt: t.Timestamp,
	}
	if t.Artist != unknownAuthor {
		q.Author = t.Artist
	}
	if lastErr != nil {
		q.LastError = lastErr.Error()
	}
	return q
}

func (t ScrobbleTrack) params(withTimestamp bool) lastfm.P {
	p := lastfm.P{"artist": t.Artist, "track": t.Track}
	if t.Album != "" {
		p["album"] = t.Album
	}
	if t.Duration > 0 {
		p["duration"] = int(t.Duration.Seconds())
	}
	if withTimestamp {
		p["timestamp"] = t.Timestamp.Unix()
	}
	return p
}
