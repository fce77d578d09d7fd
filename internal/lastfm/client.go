package lastfm

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/shkh/lastfm-go/lastfm"
)

var (
	// ErrNotLinked is returned by scrobbling calls before a session key is set.
	ErrNotLinked = errors.New("last.fm account not linked")
	// ErrSessionRevoked means Last.fm refuses the credentials. Retrying is
	// pointless until the account is linked again.
	ErrSessionRevoked = errors.New("last.fm session revoked, run `shelf lastfm` to relink")
)

// Last.fm API error codes that reject the credentials rather than the call.
const (
	codeAuthFailed     = 4
	codeInvalidSession = 9
	codeInvalidAPIKey  = 10
	codeSuspendedKey   = 26
)

const authURL = "https://www.last.fm/api/auth/"

// Scrobbler is what the player needs from Last.fm.
type Scrobbler interface {
	UpdateNowPlaying(track ScrobbleTrack) error
	Scrobble(track ScrobbleTrack) error
}

// Link is a Last.fm account authorized for shelf.
type Link struct {
	Username   string
	SessionKey string
}

// Client talks to the Last.fm API on behalf of one account.
type Client struct {
	api        *lastfm.Api
	apiKey     string
	sessionKey string
}

func New(apiKey, apiSecret string) *Client {
	return &Client{api: lastfm.New(apiKey, apiSecret), apiKey: apiKey}
}

// SetSessionKey authenticates later calls with a stored session key.
func (c *Client) SetSessionKey(key string) {
	c.sessionKey = key
	c.api.SetSession(key)
}

// RequestToken starts the web authorization flow.
func (c *Client) RequestToken() (string, error) {
	token, err := c.api.GetToken()
	if err != nil {
		return "", classify("request token", err)
	}
	return token, nil
}

// AuthURL is the page where the user approves token. Last.fm redirects to
// callback afterwards when it is set.
func (c *Client) AuthURL(token, callback string) string {
	q := url.Values{"api_key": {c.apiKey}, "token": {token}}
	if callback != "" {
		q.Set("cb", callback)
	}
	return authURL + "?" + q.Encode()
}

// Link trades an approved token for a session and authenticates the client
// with it. The username is best effort.
func (c *Client) Link(token string) (Link, error) {
	if err := c.api.LoginWithToken(token); err != nil {
		return Link{}, classify("link account", err)
	}
	c.sessionKey = c.api.GetSessionKey()

	l := Link{SessionKey: c.sessionKey, Username: "unknown"}
	if info, err := c.api.User.GetInfo(nil); err == nil && info.Name != "" {
		l.Username = info.Name
	}
	return l, nil
}

func (c *Client) UpdateNowPlaying(track ScrobbleTrack) error {
	if c.sessionKey == "" {
		return ErrNotLinked
	}
	if _, err := c.api.Track.UpdateNowPlaying(track.params(false)); err != nil {
		return classify("update now playing", err)
	}
	return nil
}

func (c *Client) Scrobble(track ScrobbleTrack) error {
	if c.sessionKey == "" {
		return ErrNotLinked
	}
	if _, err := c.api.Track.Scrobble(track.params(true)); err != nil {
		return classify("scrobble", err)
	}
	return nil
}

// classify wraps err and marks credential failures with ErrSessionRevoked.
func classify(op string, err error) error {
	var apiErr *lastfm.LastfmError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeAuthFailed, codeInvalidSession, codeInvalidAPIKey, codeSuspendedKey:
			return fmt.Errorf("%s: %w (%s)", op, ErrSessionRevoked, apiErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Scrobbler = (*Client)(nil)
