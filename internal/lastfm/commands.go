package lastfm

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shelf/internal/state"
)

const (
	// maxAttempts is how often a queued scrobble is retried before it is
	// dropped.
	maxAttempts = 10
	// maxScrobbleAge is how old a listen Last.fm still accepts.
	maxScrobbleAge = 14 * 24 * time.Hour
	retryInterval  = 5 * time.Minute
)

type NowPlayingResultMsg struct {
	Err error
}

// ScrobbleResultMsg reports a scrobble. Queued is set when the submission
// failed and the book was put in the retry queue.
type ScrobbleResultMsg struct {
	Track  ScrobbleTrack
	Queued bool
	Err    error
}

// RetryPendingMsg asks for a pass over the retry queue.
type RetryPendingMsg struct{}

// RetryResultMsg summarizes a pass over the retry queue.
type RetryResultMsg struct {
	Succeeded int
	Failed    int
	Dropped   int64
	Err       error
}

func NowPlayingCmd(client Scrobbler, track ScrobbleTrack) tea.Cmd {
	return func() tea.Msg {
		return NowPlayingResultMsg{Err: client.UpdateNowPlaying(track)}
	}
}

// ScrobbleCmd submits a finished book and queues it on failure, including a
// revoked session, so the listen survives until the account is relinked.
func ScrobbleCmd(client Scrobbler, store state.Interface, track ScrobbleTrack) tea.Cmd {
	return func() tea.Msg {
		err := client.Scrobble(track)
		if err == nil {
			return ScrobbleResultMsg{Track: track}
		}
		qerr := store.QueueScrobble(track.queued(err))
		return ScrobbleResultMsg{Track: track, Queued: qerr == nil, Err: err}
	}
}

// RetryPendingCmd drops listens Last.fm would reject anyway, then resubmits
// the rest oldest first. A revoked session ends the pass without counting an
// attempt against the remaining books.
func RetryPendingCmd(client Scrobbler, store state.Interface, now time.Time) tea.Cmd {
	return func() tea.Msg {
		var res RetryResultMsg
		dropped, err := store.DropStaleScrobbles(maxAttempts, now.Add(-maxScrobbleAge))
		if err != nil {
			return RetryResultMsg{Err: err}
		}
		res.Dropped = dropped

		queued, err := store.QueuedScrobbles(maxAttempts)
		if err != nil {
			res.Err = err
			return res
		}
		for _, q := range queued {
			err := client.Scrobble(queuedTrack(q))
			switch {
			case err == nil:
				res.Succeeded++
				_ = store.ResolveScrobble(q.ID)
			case errors.Is(err, ErrSessionRevoked), errors.Is(err, ErrNotLinked):
				res.Err = err
				return res
			default:
				res.Failed++
				_ = store.FailScrobble(q.ID, err.Error())
			}
		}
		return res
	}
}

// RetryTickCmd schedules the next pass over the retry queue.
func RetryTickCmd() tea.Cmd {
	return tea.Tick(retryInterval, func(time.Time) tea.Msg { return RetryPendingMsg{} })
}
