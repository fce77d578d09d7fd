// Package app is the root bubbletea model: the continue-listening list,
// the library browser, the history view and the player bar around one
// listening session.
package app

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/cover"
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/lastfm"
	"github.com/llehouerou/shelf/internal/mpris"
	"github.com/llehouerou/shelf/internal/notify"
	"github.com/llehouerou/shelf/internal/session"
	"github.com/llehouerou/shelf/internal/state"
	"github.com/llehouerou/shelf/internal/ui/librarybrowser"
	"github.com/llehouerou/shelf/internal/ui/list"
)

// quitTimeout bounds the final close-sync when quitting.
const quitTimeout = 2 * time.Second

// volumeStep is the change per volume key press, in percent.
const volumeStep = 5

// ViewMode selects the main panel.
type ViewMode string

const (
	ViewContinue ViewMode = "continue"
	ViewLibrary  ViewMode = "library"
	ViewHistory  ViewMode = "history"
)

// Library is the part of the server API the list views need.
type Library interface {
	ItemsInProgress(ctx context.Context) ([]abs.LibraryItem, error)
	MediaProgress(ctx context.Context, itemID string) (*abs.MediaProgress, error)
	Libraries(ctx context.Context) ([]abs.Library, error)
	LibraryItems(ctx context.Context, libraryID string) ([]abs.LibraryItem, error)
	Item(ctx context.Context, itemID string) (*abs.LibraryItem, error)
}

// Publisher receives the session status for desktop controllers.
type Publisher interface {
	Publish(mpris.Status)
}

// Deps are the collaborators of the model. Optional ones may be nil.
type Deps struct {
	Config  *config.Config
	Library Library
	Remote  session.Remote
	Engine  *engine.Engine
	Store   state.Interface
	Log     logrus.FieldLogger

	// StreamURL makes a track content URL playable.
	StreamURL func(string) string
	// Server is the server URL; its host is shown in the header.
	Server string

	Notifier  notify.Notifier
	Covers    *cover.Cache
	Scrobbler lastfm.Scrobbler
	MPRIS     Publisher
}

// Model is the root application model.
type Model struct {
	view    ViewMode
	books   list.Model[abs.LibraryItem]
	history []state.ListeningRecord

	loading  bool
	spinner  spinner.Model
	listErr  string
	restored bool

	browser browserState

	keys keyMap
	help help.Model

	session *session.Controller
	live    *liveSession
	// resolving is the book whose stored progress is being fetched before
	// its session is opened.
	resolving string
	coverPath string
	notifyID  uint32

	library   Library
	store     state.Interface
	notifier  notify.Notifier
	covers    *cover.Cache
	scrobbler lastfm.Scrobbler
	mpris     Publisher
	log       logrus.FieldLogger

	playback       config.PlaybackConfig
	requestTimeout time.Duration
	notifyEnabled  bool
	server         string
	now            func() time.Time

	width  int
	height int
}

// New creates the application model and its session controller.
func New(d Deps) Model {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	log := d.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notify.Nop()
	}

	pb := cfg.GetPlaybackConfig()
	live := &liveSession{}
	ctrl := session.NewController(d.Remote, d.Engine, live, session.Options{
		ProgressInterval: pb.ProgressInterval,
		SyncInterval:     pb.SyncInterval,
		RequestTimeout:   cfg.GetRequestTimeout(),
		StreamURL:        d.StreamURL,
		Log:              log,
	})

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		view:           ViewContinue,
		books:          list.New(func(it abs.LibraryItem) string { return it.ID }),
		browser:        browserState{Model: librarybrowser.New()},
		loading:        true,
		spinner:        sp,
		keys:           newKeyMap(),
		help:           help.New(),
		session:        ctrl,
		live:           live,
		library:        d.Library,
		store:          d.Store,
		notifier:       notifier,
		covers:         d.Covers,
		scrobbler:      d.Scrobbler,
		mpris:          d.MPRIS,
		log:            log.WithField("component", "app"),
		playback:       pb,
		requestTimeout: cfg.GetRequestTimeout(),
		notifyEnabled:  cfg.NotificationsEnabled(),
		server:         serverHost(d.Server),
		now:            time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		loadItemsCmd(m.library, m.requestTimeout),
		loadHistoryCmd(m.store),
	}
	if m.scrobbling() {
		// the first pass runs at launch, the retry handler re-arms the tick
		cmds = append(cmds, func() tea.Msg { return lastfm.RetryPendingMsg{} })
	}
	if m.covers != nil {
		covers := m.covers
		cmds = append(cmds, func() tea.Msg {
			covers.Prune()
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) scrobbling() bool {
	return m.scrobbler != nil
}

// Session exposes the controller, mainly for tests.
func (m Model) Session() *session.Controller { return m.session }
