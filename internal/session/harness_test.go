package session

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/engine"
)

type remoteCall struct {
	op          string
	id          string
	currentTime float64
	duration    float64
}

// fakeRemote serves canned sessions. An open for an item with a gate blocks
// until the gate is closed.
type fakeRemote struct {
	mu       sync.Mutex
	sessions map[string]*abs.PlaybackSession
	openErr  map[string]error
	gates    map[string]chan struct{}
	syncErr  error
	calls    []remoteCall
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		sessions: make(map[string]*abs.PlaybackSession),
		openErr:  make(map[string]error),
		gates:    make(map[string]chan struct{}),
	}
}

func (r *fakeRemote) add(itemID, sessionID string, duration, current float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[itemID] = &abs.PlaybackSession{
		ID:            sessionID,
		LibraryItemID: itemID,
		DisplayTitle:  "Title " + itemID,
		DisplayAuthor: "Author " + itemID,
		Duration:      duration,
		CurrentTime:   current,
		AudioTracks: []abs.AudioTrack{
			{Index: 1, ContentURL: "/s/item/" + itemID + "/book.mp3", MimeType: "audio/mpeg", Duration: duration},
		},
	}
}

func (r *fakeRemote) gate(itemID string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.gates[itemID] = ch
	return ch
}

func (r *fakeRemote) failOpen(itemID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openErr[itemID] = err
}

func (r *fakeRemote) clearOpenErr(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.openErr, itemID)
}

func (r *fakeRemote) OpenSession(_ context.Context, itemID string) (*abs.PlaybackSession, error) {
	r.mu.Lock()
	gate := r.gates[itemID]
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, remoteCall{op: "open", id: itemID})
	if err := r.openErr[itemID]; err != nil {
		return nil, err
	}
	s, ok := r.sessions[itemID]
	if !ok {
		return nil, &abs.Error{Kind: abs.KindServer, Op: "open session", Status: 404}
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRemote) SyncSession(_ context.Context, id string, currentTime, duration float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, remoteCall{"sync", id, currentTime, duration})
	return r.syncErr
}

func (r *fakeRemote) CloseSession(_ context.Context, id string, currentTime, duration float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, remoteCall{"close", id, currentTime, duration})
	return nil
}

func (r *fakeRemote) callsOf(op string) []remoteCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []remoteCall
	for _, c := range r.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type observedError struct {
	kind    Kind
	message string
}

type observedTick struct {
	current   float64
	formatted string
}

// recorder is an Observer that keeps every notification.
type recorder struct {
	started []string
	ticks   []observedTick
	states  []engine.State
	errors  []observedError
}

func (o *recorder) OnSessionStarted(title, _ string, _, _ float64) {
	o.started = append(o.started, title)
}

func (o *recorder) OnPositionTick(current float64, formatted string) {
	o.ticks = append(o.ticks, observedTick{current, formatted})
}

func (o *recorder) OnStateChanged(state engine.State) {
	o.states = append(o.states, state)
}

func (o *recorder) OnSessionError(kind Kind, message string) {
	o.errors = append(o.errors, observedError{kind, message})
}

func (o *recorder) lastState() engine.State {
	if len(o.states) == 0 {
		return engine.Idle
	}
	return o.states[len(o.states)-1]
}

// harness runs a controller the way the bubbletea runtime would: commands
// execute on their own goroutines and their messages are fed back through
// Update. It must be used inside a synctest bubble so timers only fire when
// the test advances the fake clock.
type harness struct {
	t        *testing.T
	ctrl     *Controller
	remote   *fakeRemote
	observer *recorder
	pipes    []*engine.Mock
	hook     *test.Hook
	loadErr  error

	mu      sync.Mutex
	pending []tea.Msg
	seen    []tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	h := &harness{t: t, remote: newFakeRemote(), observer: &recorder{}, hook: hook}

	factory := func() engine.Pipeline {
		m := engine.NewMock()
		m.SetLoadError(h.loadErr)
		h.pipes = append(h.pipes, m)
		return m
	}
	eng := engine.New(factory, engine.Config{StarvedPercent: 100, FullPercent: 100}, log)
	h.ctrl = NewController(h.remote, eng, h.observer, Options{
		ProgressInterval: time.Second,
		SyncInterval:     15 * time.Second,
		RequestTimeout:   time.Second,
		StreamURL:        func(u string) string { return "https://abs.test" + u + "?token=tok" },
		Log:              log,
	})
	return h
}

// pipe returns the pipeline of the most recent load.
func (h *harness) pipe() *engine.Mock {
	h.t.Helper()
	if len(h.pipes) == 0 {
		h.t.Fatal("no pipeline loaded")
	}
	return h.pipes[len(h.pipes)-1]
}

// run executes cmd in the background, expanding batches.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				h.run(c)
			}
			return
		}
		if msg == nil {
			return
		}
		h.mu.Lock()
		h.pending = append(h.pending, msg)
		h.mu.Unlock()
	}()
}

// settle delivers messages to the controller until every command is blocked.
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
			h.run(h.ctrl.Update(msg))
		}
	}
}

// do runs a controller command and settles.
func (h *harness) do(cmd tea.Cmd) {
	h.run(cmd)
	h.settle()
}

// advance moves the fake clock and settles.
func (h *harness) advance(d time.Duration) {
	time.Sleep(d)
	h.settle()
}

// emit sends a pipeline event on the current pipeline and settles.
func (h *harness) emit(ev engine.Event) {
	h.pipe().Emit(ev)
	h.settle()
}

// play drives the freshly loaded pipeline into Playing.
func (h *harness) play() {
	h.emit(engine.Event{Kind: engine.EventReady})
	h.emit(engine.Event{Kind: engine.EventBufferLevel, Percent: 100})
}

// shutdown stops the controller so that pending watches exit before the
// bubble ends.
func (h *harness) shutdown() {
	h.do(h.ctrl.Stop())
}

func (h *harness) ended() []EndedMsg {
	var out []EndedMsg
	for _, m := range h.seen {
		if e, ok := m.(EndedMsg); ok {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) startedMsgs() []StartedMsg {
	var out []StartedMsg
	for _, m := range h.seen {
		if s, ok := m.(StartedMsg); ok {
			out = append(out, s)
		}
	}
	return out
}
