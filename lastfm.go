package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/lastfm"
	"github.com/llehouerou/shelf/internal/state"
)

// authTimeout bounds how long `shelf lastfm` waits for the browser callback.
const authTimeout = 5 * time.Minute

// runLastfmLink authorizes shelf with Last.fm and stores the session key.
func runLastfmLink() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HasLastfmConfig() {
		return errors.New("last.fm is not configured: set [lastfm] api_key and api_secret")
	}

	store, err := state.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)

	srv, err := lastfm.StartAuthServer()
	if err != nil {
		return err
	}
	defer srv.Shutdown()

	token, err := client.RequestToken()
	if err != nil {
		return err
	}
	url := client.AuthURL(token, srv.CallbackURL())

	fmt.Println("Authorize shelf in your browser:")
	fmt.Println(url)
	if err := lastfm.OpenBrowser(url); err != nil {
		fmt.Println("(could not open a browser, open the link manually)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()
	if cbToken, err := srv.WaitForToken(ctx); err != nil {
		return err
	} else if cbToken != "" {
		token = cbToken
	}

	link, err := client.Link(token)
	if err != nil {
		return err
	}
	if err := store.SaveLastfmSession(link.Username, link.SessionKey); err != nil {
		return err
	}
	fmt.Printf("Linked Last.fm account %s.\n", link.Username)
	return nil
}
