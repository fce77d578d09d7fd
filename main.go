package main

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/app"
	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/cover"
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/errmsg"
	"github.com/llehouerou/shelf/internal/lastfm"
	"github.com/llehouerou/shelf/internal/logging"
	"github.com/llehouerou/shelf/internal/mpris"
	"github.com/llehouerou/shelf/internal/notify"
	"github.com/llehouerou/shelf/internal/state"
	"github.com/llehouerou/shelf/internal/stderr"
)

const version = "0.1.0"

var errNoServer = errors.New("no server configured: set [server] url in config.toml or SHELF_URL")

func main() {
	var err error
	switch {
	case len(os.Args) > 1 && os.Args[1] == "login":
		err = runLogin(os.Args[2:])
	case len(os.Args) > 1 && os.Args[1] == "lastfm":
		err = runLastfmLink()
	case len(os.Args) > 1 && (os.Args[1] == "version" || os.Args[1] == "--version"):
		fmt.Println("shelf", version)
	default:
		err = run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HasServer() {
		return errNoServer
	}

	log, logCloser, err := logging.Setup(cfg.GetLogConfig())
	if err != nil {
		return err
	}
	defer logCloser.Close()

	// Decoders and the audio backend write to fd 2, which would corrupt the TUI.
	if err := stderr.Start(log); err != nil {
		log.WithError(err).Warn("stderr capture unavailable")
	}
	defer stderr.Stop()

	store, err := state.Open()
	if err != nil {
		return fmt.Errorf("%s: %w", errmsg.OpInitialize, err)
	}
	defer store.Close()

	deviceID, err := store.DeviceID()
	if err != nil {
		log.WithError(err).Warn(errmsg.Format(errmsg.OpDeviceIDLoad, err))
	}

	client := abs.NewClient(cfg.Server.URL, cfg.Server.Token,
		abs.DefaultDeviceInfo(deviceID, version), cfg.GetRequestTimeout())

	buf := cfg.GetBufferConfig()
	pb := cfg.GetPlaybackConfig()
	eng := engine.New(engine.StreamFactory(engine.StreamConfig{
		ResponseTimeout: cfg.GetRequestTimeout(),
		Prebuffer:       buf.Prebuffer,
		Ahead:           buf.Ahead,
		Log:             log.WithField("component", "stream"),
	}), engine.Config{
		StarvedPercent: buf.StarvedPercent,
		FullPercent:    buf.FullPercent,
		Volume:         pb.Volume,
	}, log)

	deps := app.Deps{
		Config:    cfg,
		Library:   client,
		Remote:    client,
		Engine:    eng,
		Store:     store,
		Log:       log,
		StreamURL: client.StreamURL,
		Server:    client.BaseURL(),
		Notifier:  openNotifier(cfg, log),
		Scrobbler: openScrobbler(cfg, store, log),
	}

	covers, err := cover.New("", client)
	if err != nil {
		log.WithError(err).Warn("cover cache disabled")
	} else {
		deps.Covers = covers
	}

	var program atomic.Pointer[tea.Program]
	send := func(msg tea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	}
	if adapter, err := mpris.New(send); err != nil {
		log.WithError(err).Warn("MPRIS unavailable")
	} else {
		defer adapter.Close()
		deps.MPRIS = adapter
	}

	log.WithFields(logrus.Fields{"server": cfg.Server.URL, "version": version}).Info("starting")

	p := tea.NewProgram(app.New(deps), tea.WithAltScreen())
	program.Store(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func openNotifier(cfg *config.Config, log logrus.FieldLogger) notify.Notifier {
	if !cfg.NotificationsEnabled() {
		return nil
	}
	n, err := notify.New()
	if err != nil {
		log.WithError(err).Warn(errmsg.Format(errmsg.OpNotifyConnect, err))
		return nil
	}
	return n
}

// openScrobbler returns nil unless Last.fm is configured and linked.
func openScrobbler(cfg *config.Config, store state.Interface, log logrus.FieldLogger) lastfm.Scrobbler {
	if !cfg.HasLastfmConfig() {
		return nil
	}
	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	key := cfg.Lastfm.SessionKey
	if sess, err := store.GetLastfmSession(); err != nil {
		log.WithError(err).Warn("load last.fm session")
	} else if sess != nil {
		key = sess.SessionKey
	}
	if key == "" {
		log.Info("last.fm configured but not linked, run `shelf lastfm`")
		return nil
	}
	client.SetSessionKey(key)
	return client
}
