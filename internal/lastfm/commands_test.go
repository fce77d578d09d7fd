package lastfm

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/shelf/internal/state"
)

// fakeScrobbler fails every submission with err, or only the books in
// failFor when set.
type fakeScrobbler struct {
	mu         sync.Mutex
	err        error
	failFor    map[string]bool
	nowPlaying []ScrobbleTrack
	scrobbled  []ScrobbleTrack
	attempts   int
}

func (f *fakeScrobbler) UpdateNowPlaying(track ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowPlaying = append(f.nowPlaying, track)
	return f.err
}

func (f *fakeScrobbler) Scrobble(track ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.err != nil && (f.failFor == nil || f.failFor[track.ItemID]) {
		return f.err
	}
	f.scrobbled = append(f.scrobbled, track)
	return nil
}

var listenedAt = time.Unix(1_700_000_000, 0)

func TestBookTrack(t *testing.T) {
	track := BookTrack("li_dune", "Dune", "Frank Herbert", 3600.4, listenedAt)

	assert.Equal(t, ScrobbleTrack{
		ItemID:    "li_dune",
		Artist:    "Frank Herbert",
		Track:     "Dune",
		Album:     "Dune",
		Duration:  time.Duration(3600.4 * float64(time.Second)),
		Timestamp: listenedAt,
	}, track)
	assert.Equal(t, unknownAuthor, BookTrack("li_emma", "Emma", "", 0, listenedAt).Artist)
}

func TestScrobbleTrack_Params(t *testing.T) {
	track := BookTrack("li_dune", "Dune", "Frank Herbert", 3600, listenedAt)

	now := track.params(false)
	assert.NotContains(t, now, "timestamp")
	assert.NotContains(t, now, "item_id")
	assert.Equal(t, 3600, now["duration"])

	scrobble := track.params(true)
	assert.Equal(t, listenedAt.Unix(), scrobble["timestamp"])
	assert.Equal(t, "Dune", scrobble["album"])

	bare := ScrobbleTrack{Artist: "A", Track: "T"}.params(false)
	assert.NotContains(t, bare, "album")
	assert.NotContains(t, bare, "duration")
}

func TestScrobbleTrack_QueueRoundTrip(t *testing.T) {
	track := BookTrack("li_emma", "Emma", "", 1800, listenedAt)
	q := track.queued(errors.New("offline"))

	assert.Empty(t, q.Author, "placeholder author is not stored")
	assert.Equal(t, "offline", q.LastError)
	assert.Equal(t, track, queuedTrack(q))
}

func TestNowPlayingCmd(t *testing.T) {
	f := &fakeScrobbler{}
	track := BookTrack("li_dune", "Dune", "Frank Herbert", 3600, listenedAt)

	res, ok := NowPlayingCmd(f, track)().(NowPlayingResultMsg)

	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, []ScrobbleTrack{track}, f.nowPlaying)
}

func TestScrobbleCmd(t *testing.T) {
	track := BookTrack("li_dune", "Dune", "Frank Herbert", 3600, listenedAt)

	tests := []struct {
		name       string
		err        error
		wantQueued bool
	}{
		{"accepted", nil, false},
		{"offline is queued", errors.New("offline"), true},
		{"revoked session is queued", ErrSessionRevoked, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewMock()
			res := ScrobbleCmd(&fakeScrobbler{err: tt.err}, store, track)().(ScrobbleResultMsg)

			assert.ErrorIs(t, res.Err, tt.err)
			assert.Equal(t, tt.wantQueued, res.Queued)
			queued, _ := store.QueuedScrobbles(0)
			if !tt.wantQueued {
				assert.Empty(t, queued)
				return
			}
			require.Len(t, queued, 1)
			assert.Equal(t, "li_dune", queued[0].ItemID)
			assert.InDelta(t, 3600, queued[0].Duration, 1e-9)
			assert.Equal(t, tt.err.Error(), queued[0].LastError)
		})
	}
}

func queue(t *testing.T, store state.Interface, items ...string) {
	t.Helper()
	for i, id := range items {
		require.NoError(t, store.QueueScrobble(state.QueuedScrobble{
			ItemID: id, Title: id, ListenedAt: listenedAt.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestRetryPendingCmd(t *testing.T) {
	store := state.NewMock()
	queue(t, store, "one", "two", "three")
	queued, _ := store.QueuedScrobbles(0)
	for range maxAttempts {
		require.NoError(t, store.FailScrobble(queued[2].ID, "offline"))
	}
	f := &fakeScrobbler{err: errors.New("offline"), failFor: map[string]bool{"two": true}}

	res := RetryPendingCmd(f, store, listenedAt.Add(time.Hour))().(RetryResultMsg)

	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, int64(1), res.Dropped, "exhausted scrobble is dropped")
	require.Len(t, f.scrobbled, 1)
	assert.Equal(t, "one", f.scrobbled[0].ItemID)

	left, _ := store.QueuedScrobbles(0)
	require.Len(t, left, 1)
	assert.Equal(t, "two", left[0].ItemID)
	assert.Equal(t, 1, left[0].Attempts)
}

func TestRetryPendingCmd_DropsTooOld(t *testing.T) {
	store := state.NewMock()
	queue(t, store, "old")

	res := RetryPendingCmd(&fakeScrobbler{}, store, listenedAt.Add(15*24*time.Hour))().(RetryResultMsg)

	assert.Equal(t, int64(1), res.Dropped)
	assert.Zero(t, res.Succeeded)
	left, _ := store.QueuedScrobbles(0)
	assert.Empty(t, left)
}

func TestRetryPendingCmd_RevokedStopsPass(t *testing.T) {
	store := state.NewMock()
	queue(t, store, "one", "two")
	f := &fakeScrobbler{err: ErrSessionRevoked}

	res := RetryPendingCmd(f, store, listenedAt)().(RetryResultMsg)

	assert.ErrorIs(t, res.Err, ErrSessionRevoked)
	assert.Equal(t, 1, f.attempts)
	left, _ := store.QueuedScrobbles(0)
	require.Len(t, left, 2)
	assert.Zero(t, left[0].Attempts, "revoked session does not burn attempts")
}
