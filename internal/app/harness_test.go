package app

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"testing/synctest"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/lastfm"
	"github.com/llehouerou/shelf/internal/mpris"
	"github.com/llehouerou/shelf/internal/notify"
	"github.com/llehouerou/shelf/internal/state"
)

var errOffline = errors.New("connection refused")

func book(id, title, author string) abs.LibraryItem {
	it := abs.LibraryItem{ID: id}
	it.Media.Metadata.Title = title
	it.Media.Metadata.AuthorName = author
	it.Media.Duration = 3600
	return it
}

func added(it abs.LibraryItem, at int64) abs.LibraryItem {
	it.AddedAt = at
	return it
}

// fakeLibrary serves a fixed shelf, one library and per-item progress.
type fakeLibrary struct {
	mu          sync.Mutex
	items       []abs.LibraryItem
	itemsErr    error
	progress    map[string]*abs.MediaProgress
	progressErr error
	itemCalls   int

	books      []abs.LibraryItem // contents of library "lib-1"
	libraryErr error
	details    map[string]*abs.LibraryItem
	libCalls   int
}

func (l *fakeLibrary) Libraries(context.Context) ([]abs.Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.libCalls++
	if l.libraryErr != nil {
		return nil, l.libraryErr
	}
	return []abs.Library{{ID: "lib-1", Name: "Audiobooks"}}, nil
}

func (l *fakeLibrary) LibraryItems(_ context.Context, libraryID string) ([]abs.LibraryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if libraryID != "lib-1" {
		return nil, &abs.Error{Kind: abs.KindServer, Op: "list library items", Status: 404}
	}
	return l.books, nil
}

func (l *fakeLibrary) Item(_ context.Context, itemID string) (*abs.LibraryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if it, ok := l.details[itemID]; ok {
		return it, nil
	}
	return nil, &abs.Error{Kind: abs.KindServer, Op: "get item", Status: 404}
}

func (l *fakeLibrary) ItemsInProgress(context.Context) ([]abs.LibraryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.itemCalls++
	return l.items, l.itemsErr
}

func (l *fakeLibrary) MediaProgress(_ context.Context, itemID string) (*abs.MediaProgress, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.progressErr != nil {
		return nil, l.progressErr
	}
	return l.progress[itemID], nil
}

type closeCall struct {
	id          string
	currentTime float64
}

// fakeRemote opens a session for every known book, resuming at 300s.
type fakeRemote struct {
	mu      sync.Mutex
	opened  []string
	closed  []closeCall
	openErr error
}

func (r *fakeRemote) OpenSession(_ context.Context, itemID string) (*abs.PlaybackSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, itemID)
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &abs.PlaybackSession{
		ID:            "ses-" + itemID,
		LibraryItemID: itemID,
		DisplayTitle:  "Dune",
		DisplayAuthor: "Frank Herbert",
		Duration:      3600,
		CurrentTime:   300,
		AudioTracks: []abs.AudioTrack{
			{Index: 1, ContentURL: "/s/item/" + itemID + "/book.m4b", MimeType: "audio/mp4", Duration: 3600},
		},
	}, nil
}

func (r *fakeRemote) SyncSession(context.Context, string, float64, float64) error { return nil }

func (r *fakeRemote) CloseSession(_ context.Context, id string, currentTime, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, closeCall{id, currentTime})
	return nil
}

func (r *fakeRemote) openCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}

func (r *fakeRemote) closeCalls() []closeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]closeCall(nil), r.closed...)
}

type fakeScrobbler struct {
	mu         sync.Mutex
	nowPlaying []lastfm.ScrobbleTrack
	scrobbled  []lastfm.ScrobbleTrack
}

func (f *fakeScrobbler) UpdateNowPlaying(track lastfm.ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowPlaying = append(f.nowPlaying, track)
	return nil
}

func (f *fakeScrobbler) Scrobble(track lastfm.ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrobbled = append(f.scrobbled, track)
	return nil
}

type fakePublisher struct {
	statuses []mpris.Status
}

func (p *fakePublisher) Publish(s mpris.Status) { p.statuses = append(p.statuses, s) }

func (p *fakePublisher) last() mpris.Status {
	if len(p.statuses) == 0 {
		return mpris.Status{}
	}
	return p.statuses[len(p.statuses)-1]
}

// harness drives the model like the bubbletea runtime: commands run on
// their own goroutines and their messages come back through Update.
// Tests that start sessions use it inside a synctest bubble.
type harness struct {
	t *testing.T
	m Model

	library   *fakeLibrary
	remote    *fakeRemote
	store     *state.Mock
	notifier  *notify.Recorder
	scrobbler *fakeScrobbler
	publisher *fakePublisher
	hook      *test.Hook
	pipes     []*engine.Mock

	mu      sync.Mutex
	pending []tea.Msg
	seen    []tea.Msg
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	h := &harness{
		t: t,
		library: &fakeLibrary{
			items: []abs.LibraryItem{
				book("li_1", "Dune", "Frank Herbert"),
				book("li_2", "Hyperion", "Dan Simmons"),
			},
			progress: map[string]*abs.MediaProgress{},
			books: []abs.LibraryItem{
				added(book("li_1", "Dune", "Frank Herbert"), 300),
				added(book("li_2", "Hyperion", "Dan Simmons"), 100),
				added(book("li_3", "Children of Dune", "Frank Herbert"), 200),
				added(book("li_1", "Dune", "Frank Herbert"), 300),
			},
			details: map[string]*abs.LibraryItem{},
		},
		remote:    &fakeRemote{},
		store:     state.NewMock(),
		notifier:  &notify.Recorder{},
		scrobbler: &fakeScrobbler{},
		publisher: &fakePublisher{},
		hook:      hook,
	}
	factory := func() engine.Pipeline {
		p := engine.NewMock()
		h.pipes = append(h.pipes, p)
		return p
	}
	eng := engine.New(factory, engine.Config{StarvedPercent: 100, FullPercent: 100}, log)

	h.m = New(Deps{
		Config:    cfg,
		Library:   h.library,
		Remote:    h.remote,
		Engine:    eng,
		Store:     h.store,
		Log:       log,
		Server:    "https://abs.example.com",
		Notifier:  h.notifier,
		Scrobbler: h.scrobbler,
		MPRIS:     h.publisher,
	})
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	h.update(ItemsLoadedMsg{Items: h.library.items})
	return h
}

// update delivers msg synchronously and returns the resulting command
// without running it.
func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) key(k string) tea.Cmd {
	switch k {
	case "enter":
		return h.update(tea.KeyMsg{Type: tea.KeyEnter})
	case " ":
		return h.update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	case "esc":
		return h.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "down":
		return h.update(tea.KeyMsg{Type: tea.KeyDown})
	}
	return h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

// run executes cmd in the background. Batches fan out; sequences run in
// order on one goroutine.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go h.exec(cmd)
}

func (h *harness) exec(cmd tea.Cmd) {
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			h.run(c)
		}
		return
	}
	if seq, ok := sequence(msg); ok {
		for _, c := range seq {
			if c != nil {
				h.exec(c)
			}
		}
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending, msg)
	h.mu.Unlock()
}

// sequence unpacks the unexported message produced by tea.Sequence.
func sequence(msg tea.Msg) ([]tea.Cmd, bool) {
	v := reflect.ValueOf(msg)
	cmdType := reflect.TypeOf((tea.Cmd)(nil))
	if v.Kind() != reflect.Slice || v.Type().Elem() != cmdType {
		return nil, false
	}
	cmds := make([]tea.Cmd, v.Len())
	for i := range cmds {
		cmds[i] = v.Index(i).Interface().(tea.Cmd)
	}
	return cmds, true
}

// settle feeds messages back until every command is blocked.
func (h *harness) settle() {
	for {
		synctest.Wait()
		h.mu.Lock()
		msgs := h.pending
		h.pending = nil
		h.mu.Unlock()
		if len(msgs) == 0 {
			return
		}
		for _, msg := range msgs {
			h.seen = append(h.seen, msg)
			h.run(h.update(msg))
		}
	}
}

func (h *harness) do(cmd tea.Cmd) {
	h.run(cmd)
	h.settle()
}

// collect runs cmd synchronously and returns every message it yields.
// Only for commands that never block.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func (h *harness) pipe() *engine.Mock {
	h.t.Helper()
	if len(h.pipes) == 0 {
		h.t.Fatal("no pipeline loaded")
	}
	return h.pipes[len(h.pipes)-1]
}

// play drives the loaded pipeline into Playing.
func (h *harness) play() {
	h.pipe().Emit(engine.Event{Kind: engine.EventReady})
	h.settle()
	h.pipe().Emit(engine.Event{Kind: engine.EventBufferLevel, Percent: 100})
	h.settle()
}

// startFirst presses enter on the first book and lets the session open.
func (h *harness) startFirst() {
	h.do(h.key("enter"))
}

// shutdown stops the session so engine watches exit before the bubble ends.
func (h *harness) shutdown() {
	h.do(h.key("s"))
}

func (h *harness) sawQuit() bool {
	for _, msg := range h.seen {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}
