package session

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/errmsg"
)

// minResumeSeek is the smallest start position worth seeking to.
const minResumeSeek = 1.0

// Options configures a Controller.
type Options struct {
	ProgressInterval time.Duration // default: 1s
	SyncInterval     time.Duration // default: 15s
	RequestTimeout   time.Duration // default: 30s

	// StreamURL resolves a track content URL to a playable URL.
	// Nil uses the content URL as is.
	StreamURL func(contentURL string) string

	Log logrus.FieldLogger
}

// Controller orchestrates one listening session at a time.
type Controller struct {
	remote   Remote
	engine   *engine.Engine
	observer Observer
	opts     Options
	log      logrus.FieldLogger

	session *Session

	// requestID identifies the start request whose result is awaited,
	// 0 when none is pending.
	requestID   uint64
	lastRequest uint64
	pendingItem string

	// gen tags timers and engine watches of the installed session.
	gen uint64

	now func() time.Time
}

// NewController creates an idle controller.
func NewController(remote Remote, eng *engine.Engine, observer Observer, opts Options) *Controller {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = time.Second
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 15 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.StreamURL == nil {
		opts.StreamURL = func(u string) string { return u }
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Controller{
		remote:   remote,
		engine:   eng,
		observer: observer,
		opts:     opts,
		log:      log.WithField("component", "session"),
		now:      time.Now,
	}
}

// Start retires the current session and opens a new one for itemID,
// resuming from the server position. The returned command performs the
// remote call; its result must be routed back through Update.
func (c *Controller) Start(itemID string) tea.Cmd {
	return c.start(itemID, -1)
}

// StartAt is like Start but begins at the given position in seconds.
func (c *Controller) StartAt(itemID string, seek float64) tea.Cmd {
	return c.start(itemID, max(seek, 0))
}

func (c *Controller) start(itemID string, seek float64) tea.Cmd {
	if itemID == "" {
		c.observer.OnSessionError(KindSessionStartFailed, "No book selected")
		return nil
	}

	stop := c.Stop()

	c.lastRequest++
	c.requestID = c.lastRequest
	c.pendingItem = itemID
	c.log.WithFields(logrus.Fields{"item": itemID, "request": c.requestID}).Info("starting session")

	return tea.Batch(stop, openCmd(c.remote, c.opts.RequestTimeout, c.requestID, itemID, seek))
}

// Stop retires the active session and invalidates any pending start.
// It returns a fire-and-forget close command, or nil when nothing is active.
func (c *Controller) Stop() tea.Cmd {
	if c.requestID != 0 {
		c.log.WithField("request", c.requestID).Debug("pending start invalidated")
	}
	c.requestID = 0
	c.pendingItem = ""
	return c.retire(EndStopped)
}

// Shutdown retires the active session and returns a command that performs
// the close-sync synchronously, bounded by timeout, then reports EndedMsg.
// Run it before quitting so the final position reaches the server.
func (c *Controller) Shutdown(timeout time.Duration) tea.Cmd {
	c.requestID = 0
	c.pendingItem = ""
	s, ok := c.detach(EndStopped)
	if !ok {
		return nil
	}
	remote, log := c.remote, c.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := remote.CloseSession(ctx, s.ID, s.CurrentTime, s.Duration); err != nil {
			log.WithError(err).WithField("session", s.ID).Warn("session close failed")
		}
		return EndedMsg{Session: s, Reason: EndStopped}
	}
}

// retire detaches the session and fires the close-sync.
func (c *Controller) retire(reason EndReason) tea.Cmd {
	s, ok := c.detach(reason)
	if !ok {
		return nil
	}
	return tea.Batch(
		closeCmd(c.remote, c.opts.RequestTimeout, s.ID, s.CurrentTime, s.Duration),
		emit(EndedMsg{Session: s, Reason: reason}),
	)
}

// detach tears down local state for the active session and returns its final
// values. Bumping the generation makes every outstanding tick and engine
// watch stale.
func (c *Controller) detach(reason EndReason) (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	c.gen++

	c.refreshPosition()
	s := *c.session
	if reason == EndFinished && s.Duration > 0 {
		s.CurrentTime = s.Duration
	}

	c.engine.Close()
	c.session = nil

	c.log.WithFields(logrus.Fields{
		"session":  s.ID,
		"reason":   reason,
		"position": FormatTime(s.CurrentTime),
	}).Info("session retired")
	c.observer.OnStateChanged(engine.Idle)
	return s, true
}

// refreshPosition pulls the latest position from a live engine.
func (c *Controller) refreshPosition() {
	if c.session == nil {
		return
	}
	if c.engine.State().AcceptsTransport() {
		c.session.CurrentTime = c.engine.Position().Seconds()
	}
}

// Seek moves to an absolute position in seconds, clamped to the book.
func (c *Controller) Seek(secs float64) {
	if c.session == nil || !c.engine.State().IsActive() {
		return
	}
	target := max(secs, 0)
	if c.session.Duration > 0 {
		target = min(target, c.session.Duration)
	}

	c.engine.Seek(seconds(target))
	c.session.CurrentTime = target
	c.observer.OnPositionTick(target, FormatTime(target))
}

// SeekRelative moves by delta seconds from the current position.
func (c *Controller) SeekRelative(delta float64) {
	if c.session == nil {
		return
	}
	c.refreshPosition()
	c.Seek(c.session.CurrentTime + delta)
}

// TogglePlayPause flips the transport. It does nothing without a session.
func (c *Controller) TogglePlayPause() {
	c.transport(c.engine.Toggle)
}

// Play resumes playback.
func (c *Controller) Play() {
	c.transport(c.engine.Play)
}

// Pause pauses playback.
func (c *Controller) Pause() {
	c.transport(c.engine.Pause)
}

func (c *Controller) transport(op func()) {
	if c.session == nil {
		return
	}
	if c.engine.State() == engine.Playing {
		c.refreshPosition()
	}
	prev := c.engine.State()
	op()
	if st := c.engine.State(); st != prev {
		c.observer.OnStateChanged(st)
	}
}

// AdjustVolume changes the output level by delta percent and returns the
// new level. It applies with or without a session.
func (c *Controller) AdjustVolume(delta int) int {
	return c.engine.SetVolume(c.engine.Volume() + delta)
}

// Active reports whether a session is installed.
func (c *Controller) Active() bool { return c.session != nil }

// Starting reports whether a start request is in flight.
func (c *Controller) Starting() bool { return c.requestID != 0 }

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Starting:    c.requestID != 0,
		PendingItem: c.pendingItem,
		State:       c.engine.State(),
		PauseReason: c.engine.PauseReason(),
		BufferLevel: c.engine.BufferLevel(),
		Volume:      c.engine.Volume(),
	}
	if c.session != nil {
		snap.Active = true
		snap.Session = *c.session
	}
	return snap
}

// Update routes session messages. Other messages are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case OpenedMsg:
		return c.handleOpened(msg)
	case EngineEventMsg:
		return c.handleEngineEvent(msg)
	case ProgressTickMsg:
		return c.handleProgressTick(msg)
	case SyncTickMsg:
		return c.handleSyncTick(msg)
	case SyncResultMsg:
		c.handleSyncResult(msg)
	case ClosedMsg:
		c.handleClosed(msg)
	}
	return nil
}

func (c *Controller) handleOpened(msg OpenedMsg) tea.Cmd {
	log := c.log.WithFields(logrus.Fields{"item": msg.ItemID, "request": msg.RequestID})

	if c.requestID == 0 || msg.RequestID != c.requestID {
		log.WithField("kind", KindSupersede).Debug("discarding superseded session result")
		if msg.Err == nil && msg.Session != nil {
			ps := msg.Session
			return closeCmd(c.remote, c.opts.RequestTimeout, ps.ID, ps.CurrentTime, ps.Duration)
		}
		return nil
	}
	c.requestID = 0
	c.pendingItem = ""

	if msg.Err != nil {
		log.WithError(msg.Err).WithField("kind", KindOf(msg.Err)).Warn("session start failed")
		c.observer.OnSessionError(KindSessionStartFailed, errmsg.Format(errmsg.OpSessionStart, msg.Err))
		return nil
	}

	ps := msg.Session
	track := ps.FirstTrack()
	if track == nil {
		log.WithField("session", ps.ID).Warn("session has no audio track")
		c.observer.OnSessionError(KindSessionStartFailed, errmsg.Format(errmsg.OpSessionStart, abs.ErrNoTrack))
		return closeCmd(c.remote, c.opts.RequestTimeout, ps.ID, ps.CurrentTime, ps.Duration)
	}

	s := &Session{
		ID:          ps.ID,
		ItemID:      msg.ItemID,
		StreamURL:   c.opts.StreamURL(track.ContentURL),
		MimeType:    track.MimeType,
		Title:       ps.DisplayTitle,
		Author:      ps.DisplayAuthor,
		CoverPath:   ps.CoverPath,
		Duration:    ps.Duration,
		CurrentTime: ps.CurrentTime,
		StartedAt:   c.now(),
	}
	if msg.Seek >= 0 {
		s.CurrentTime = msg.Seek
	}
	if s.Duration > 0 {
		s.CurrentTime = min(s.CurrentTime, s.Duration)
	}

	c.session = s
	c.gen++
	gen := c.gen

	var seek time.Duration
	if s.CurrentTime > minResumeSeek {
		seek = seconds(s.CurrentTime)
	}
	if err := c.engine.Load(engine.Source{URL: s.StreamURL, MimeType: s.MimeType}, seek); err != nil {
		log.WithError(err).WithField("session", s.ID).Error("engine failed to load stream")
		c.observer.OnSessionError(KindEngineFault, errmsg.Format(errmsg.OpPlayback, err))
		return c.retire(EndFailed)
	}

	log.WithFields(logrus.Fields{
		"session":  s.ID,
		"title":    s.Title,
		"position": FormatTime(s.CurrentTime),
	}).Info("session started")
	c.observer.OnSessionStarted(s.Title, s.Author, s.Duration, s.CurrentTime)
	c.observer.OnStateChanged(c.engine.State())

	return tea.Batch(
		watchEngine(gen, c.engine.Events()),
		progressTick(gen, c.opts.ProgressInterval),
		syncTick(gen, c.opts.SyncInterval),
		emit(StartedMsg{Session: *s}),
	)
}

func (c *Controller) handleEngineEvent(msg EngineEventMsg) tea.Cmd {
	if msg.Gen != c.gen || c.session == nil {
		return nil
	}

	changed := c.engine.HandleEvent(msg.Event)

	if msg.Event.Kind == engine.EventReady && c.session.Duration <= 0 {
		if d := c.engine.Duration(); d > 0 {
			c.session.Duration = d.Seconds()
		}
	}

	if !changed {
		return watchEngine(c.gen, c.engine.Events())
	}

	st := c.engine.State()
	c.observer.OnStateChanged(st)

	switch st {
	case engine.Finished:
		return c.retire(EndFinished)
	case engine.Error:
		err := c.engine.Err()
		c.log.WithError(err).WithField("session", c.session.ID).Error("playback fault")
		c.observer.OnSessionError(KindEngineFault, errmsg.Format(errmsg.OpPlayback, err))
		return c.retire(EndFailed)
	case engine.Idle, engine.Buffering, engine.Playing, engine.Paused:
	}
	return watchEngine(c.gen, c.engine.Events())
}
