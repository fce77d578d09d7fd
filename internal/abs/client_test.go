package abs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", DefaultDeviceInfo("dev-1", "1.0.0"), time.Second)
}

func TestOpenSession(t *testing.T) {
	var got playRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/items/book-1/play", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = io.WriteString(w, `{
			"id": "s1",
			"libraryItemId": "book-1",
			"displayTitle": "Dune",
			"displayAuthor": "Frank Herbert",
			"duration": 3600,
			"currentTime": 120,
			"audioTracks": [{"index": 1, "contentUrl": "/s/item/book-1/dune.mp3", "mimeType": "audio/mpeg", "duration": 3600}]
		}`)
	})

	session, err := c.OpenSession(context.Background(), "book-1")
	require.NoError(t, err)

	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, "Dune", session.DisplayTitle)
	assert.InDelta(t, 3600.0, session.Duration, 0.001)
	assert.InDelta(t, 120.0, session.CurrentTime, 0.001)
	require.NotNil(t, session.FirstTrack())
	assert.Equal(t, "audio/mpeg", session.FirstTrack().MimeType)

	assert.Equal(t, "html5", got.MediaPlayer)
	assert.True(t, got.ForceDirectPlay)
	assert.False(t, got.ForceTranscode)
	assert.Equal(t, "dev-1", got.DeviceInfo.DeviceID)
	assert.Equal(t, "desktop", got.DeviceInfo.DeviceType)
	assert.Contains(t, got.SupportedMimeTypes, "audio/mpeg")
}

func TestSyncAndCloseSession(t *testing.T) {
	type call struct {
		path string
		body syncRequest
	}
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body syncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, call{r.URL.Path, body})
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.SyncSession(context.Background(), "s1", 130.5, 3600))
	require.NoError(t, c.CloseSession(context.Background(), "s1", 140, 3600))

	require.Len(t, calls, 2)
	assert.Equal(t, "/api/session/s1/sync", calls[0].path)
	assert.Equal(t, syncRequest{CurrentTime: 130.5, Duration: 3600, TimeListened: 1}, calls[0].body)
	assert.Equal(t, "/api/session/s1/close", calls[1].path)
	assert.Equal(t, syncRequest{CurrentTime: 140, Duration: 3600, TimeListened: 0}, calls[1].body)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
	}{
		{"server error", http.StatusInternalServerError, "", KindServer},
		{"not found", http.StatusNotFound, "", KindServer},
		{"unauthorized", http.StatusUnauthorized, "", KindAuth},
		{"forbidden", http.StatusForbidden, "", KindAuth},
		{"malformed body", http.StatusOK, "{not json", KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.OpenSession(context.Background(), "book-1")
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok, "expected *abs.Error, got %T", err)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "tok", DefaultDeviceInfo("", "dev"), time.Second)
	err := c.SyncSession(context.Background(), "s1", 1, 2)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(srv.URL, "tok", DefaultDeviceInfo("", "dev"), 50*time.Millisecond)
	_, err := c.OpenSession(context.Background(), "book-1")

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
}

func TestMediaProgress(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/me/progress/book-1", r.URL.Path)
			_, _ = io.WriteString(w, `{"libraryItemId":"book-1","currentTime":42.5,"duration":100,"progress":0.425}`)
		})

		p, err := c.MediaProgress(context.Background(), "book-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.InDelta(t, 42.5, p.CurrentTime, 0.001)
	})

	t.Run("not found is nil", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		p, err := c.MediaProgress(context.Background(), "book-1")
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestItemsInProgress(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":"a","media":{"metadata":{"title":"A","authorName":"X"}}},{"id":"b"}]`},
		{"wrapped", `{"libraryItems":[{"id":"a","media":{"metadata":{"title":"A","authorName":"X"}}},{"id":"b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			items, err := c.ItemsInProgress(context.Background())
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, "A", items[0].Title())
			assert.Equal(t, "X", items[0].Author())
			assert.Equal(t, "b", items[1].ID)
		})
	}
}

func TestLibraries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/libraries", r.URL.Path)
		_, _ = io.WriteString(w, `{"libraries":[{"id":"lib-1","name":"Audiobooks","mediaType":"book"},{"id":"lib-2","name":"Podcasts"}]}`)
	})

	libs, err := c.Libraries(context.Background())
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, "lib-1", libs[0].ID)
	assert.Equal(t, "Audiobooks", libs[0].Name)
	assert.Equal(t, "book", libs[0].MediaType)
}

func TestLibraryItems_FollowsPages(t *testing.T) {
	const total = 230
	var offsets []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/libraries/lib-1/items", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "0", q.Get("minified"))
		assert.Equal(t, "progress", q.Get("include"))
		offsets = append(offsets, q.Get("offset"))

		offset, err := strconv.Atoi(q.Get("offset"))
		require.NoError(t, err)
		n := min(100, total-offset)
		results := make([]map[string]any, n)
		for i := range results {
			results[i] = map[string]any{"id": fmt.Sprintf("li_%03d", offset+i), "addedAt": 1000 + offset + i}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results, "total": total})
	})

	items, err := c.LibraryItems(context.Background(), "lib-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "100", "200"}, offsets)
	require.Len(t, items, total)
	assert.Equal(t, "li_229", items[229].ID)
	assert.Equal(t, int64(1229), items[229].AddedAt)
}

func TestLibraryItems_StopsOnEmptyPage(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			_, _ = io.WriteString(w, `{"results":[{"id":"a"}],"total":50}`)
			return
		}
		_, _ = io.WriteString(w, `{"results":[],"total":50}`)
	})

	items, err := c.LibraryItems(context.Background(), "lib-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, calls)
}

func TestItem_Expanded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/book-1", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("expanded"))
		assert.Equal(t, "progress", r.URL.Query().Get("include"))
		_, _ = io.WriteString(w, `{
			"id": "book-1",
			"media": {
				"metadata": {"title": "Dune", "authors": [{"id": "au1", "name": "Frank Herbert"}, {"name": "Brian Herbert"}]},
				"duration": 600,
				"chapters": [
					{"id": 0, "start": 0, "end": 300, "title": "Prologue"},
					{"id": 1, "start": 300, "end": 600, "title": "Arrakis"}
				]
			},
			"userMediaProgress": {"currentTime": 320, "isFinished": false}
		}`)
	})

	item, err := c.Item(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", item.Title())
	assert.Equal(t, "Frank Herbert, Brian Herbert", item.Author())
	require.Len(t, item.Media.Chapters, 2)
	assert.Equal(t, "Arrakis", item.Media.Chapters[1].Title)
	assert.InDelta(t, 300, item.Media.Chapters[1].Start, 0.001)
	assert.InDelta(t, 300, item.Media.Chapters[0].Duration(), 0.001)

	pos, finished := item.ListenedTo()
	assert.InDelta(t, 320, pos, 0.001)
	assert.False(t, finished)
}

func TestNoToken_APICallsFailWithoutRequest(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		_, _ = io.WriteString(w, `{"isInit":true}`)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "", DefaultDeviceInfo("", "dev"), time.Second)

	_, err := c.Libraries(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAuth, kind)
	assert.False(t, hit)

	_, err = c.Status(context.Background())
	require.NoError(t, err, "unauthenticated endpoints still go out")
	assert.True(t, hit)
}

func TestCover(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/book-1/cover", r.URL.Path)
		assert.Equal(t, "400", r.URL.Query().Get("width"))
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	data, err := c.Cover(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestStreamURL(t *testing.T) {
	c := NewClient("https://abs.example.com/", "t k", DeviceInfo{}, 0)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"relative", "/s/item/1/a.mp3", "https://abs.example.com/s/item/1/a.mp3?token=t+k"},
		{"relative with query", "/s/item/1/a.mp3?x=1", "https://abs.example.com/s/item/1/a.mp3?x=1&token=t+k"},
		{"absolute", "https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3?token=t+k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.StreamURL(tt.content))
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("success stores token", func(t *testing.T) {
		var got loginRequest
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/login", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, `{"user":{"id":"u1","username":"ana","token":"new-token"}}`)
		})
		c.SetToken("")

		resp, err := c.Login(context.Background(), "ana", "secret")
		require.NoError(t, err)
		assert.Equal(t, "new-token", resp.User.Token)
		assert.Equal(t, loginRequest{Username: "ana", Password: "secret"}, got)
		assert.True(t, c.HasToken())
	})

	t.Run("rejected is auth error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		_, err := c.Login(context.Background(), "ana", "wrong")
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, KindAuth, apiErr.Kind)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	})
}

func TestDefaultDeviceInfo(t *testing.T) {
	t.Setenv("HOSTNAME", "reading-nook")

	info := DefaultDeviceInfo("", "1.2.3")
	assert.Equal(t, "shelf-terminal", info.DeviceID)
	assert.Equal(t, "reading-nook", info.DeviceName)
	assert.Equal(t, "1.2.3", info.ClientVersion)
}
