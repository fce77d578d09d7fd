// Package abs is a client for the Audiobookshelf REST API.
package abs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides access to an Audiobookshelf server.
type Client struct {
	baseURL    string
	token      string
	device     DeviceInfo
	httpClient *http.Client
}

// NewClient creates a new Audiobookshelf API client. A zero timeout means 30s.
func NewClient(baseURL, token string, device DeviceInfo, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		device:     device,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server URL without trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// HasToken reports whether the client can make authenticated calls.
func (c *Client) HasToken() bool { return c.token != "" }

// SetToken replaces the API token.
func (c *Client) SetToken(token string) { c.token = token }

// --- Sessions ---

// OpenSession starts a server-side playback session for an item.
func (c *Client) OpenSession(ctx context.Context, itemID string) (*PlaybackSession, error) {
	const op = "open session"
	body := playRequest{
		DeviceInfo:         c.device,
		SupportedMimeTypes: SupportedMimeTypes,
		MediaPlayer:        "html5",
		ForceDirectPlay:    true,
		ForceTranscode:     false,
	}

	var session PlaybackSession
	if err := c.do(ctx, op, http.MethodPost, "/api/items/"+url.PathEscape(itemID)+"/play", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SyncSession pushes the current position of an open session.
func (c *Client) SyncSession(ctx context.Context, sessionID string, currentTime, duration float64) error {
	body := syncRequest{CurrentTime: currentTime, Duration: duration, TimeListened: 1}
	return c.do(ctx, "sync session", http.MethodPost, "/api/session/"+url.PathEscape(sessionID)+"/sync", body, nil)
}

// CloseSession pushes the final position and closes the session.
func (c *Client) CloseSession(ctx context.Context, sessionID string, currentTime, duration float64) error {
	body := syncRequest{CurrentTime: currentTime, Duration: duration, TimeListened: 0}
	return c.do(ctx, "close session", http.MethodPost, "/api/session/"+url.PathEscape(sessionID)+"/close", body, nil)
}

// --- Progress & library ---

// MediaProgress returns the stored progress for an item, or nil if the user
// has never played it.
func (c *Client) MediaProgress(ctx context.Context, itemID string) (*MediaProgress, error) {
	var progress MediaProgress
	err := c.do(ctx, "get progress", http.MethodGet, "/api/me/progress/"+url.PathEscape(itemID), nil, &progress)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil //nolint:nilnil // not found is not an error
		}
		return nil, err
	}
	return &progress, nil
}

// ItemsInProgress returns the books the user has started but not finished.
func (c *Client) ItemsInProgress(ctx context.Context) ([]LibraryItem, error) {
	const op = "list items in progress"

	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, "/api/me/items-in-progress", nil, &raw); err != nil {
		return nil, err
	}

	// Older servers return a bare array, newer ones wrap it.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []LibraryItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &Error{Kind: KindParse, Op: op, Err: err}
		}
		return items, nil
	}

	var wrapped struct {
		LibraryItems []LibraryItem `json:"libraryItems"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, &Error{Kind: KindParse, Op: op, Err: err}
	}
	return wrapped.LibraryItems, nil
}

// libraryPageSize is how many items LibraryItems asks for per request.
const libraryPageSize = 100

// Libraries returns the libraries visible to the user.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var resp struct {
		Libraries []Library `json:"libraries"`
	}
	if err := c.do(ctx, "list libraries", http.MethodGet, "/api/libraries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Libraries, nil
}

// LibraryItems returns every item of a library with the user's progress,
// following the server's pagination.
func (c *Client) LibraryItems(ctx context.Context, libraryID string) ([]LibraryItem, error) {
	var items []LibraryItem
	for offset := 0; ; {
		path := fmt.Sprintf("/api/libraries/%s/items?limit=%d&offset=%d&minified=0&include=progress",
			url.PathEscape(libraryID), libraryPageSize, offset)
		var page struct {
			Results []LibraryItem `json:"results"`
			Total   int           `json:"total"`
		}
		if err := c.do(ctx, "list library items", http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Results...)
		offset += len(page.Results)
		if len(page.Results) == 0 || offset >= page.Total {
			return items, nil
		}
	}
}

// Item returns one expanded item, with its chapters and the user's progress.
func (c *Client) Item(ctx context.Context, itemID string) (*LibraryItem, error) {
	var item LibraryItem
	path := "/api/items/" + url.PathEscape(itemID) + "?expanded=1&include=progress"
	if err := c.do(ctx, "get item", http.MethodGet, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Cover downloads the cover image of an item.
func (c *Client) Cover(ctx context.Context, itemID string) ([]byte, error) {
	const op = "download cover"
	path := "/api/items/" + url.PathEscape(itemID) + "/cover?width=400"

	resp, err := c.send(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	return data, nil
}

// StreamURL resolves a track's content URL to an absolute URL carrying the token.
func (c *Client) StreamURL(contentURL string) string {
	u := contentURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = c.baseURL + u
	}
	if c.token == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "token=" + url.QueryEscape(c.token)
}

// --- Auth ---

// Status checks that the server is reachable.
func (c *Client) Status(ctx context.Context) (*ServerStatus, error) {
	var status ServerStatus
	if err := c.do(ctx, "get status", http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Login exchanges a username and password for an API token.
// On success the client uses the returned token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	const op = "login"
	var resp LoginResponse
	err := c.do(ctx, op, http.MethodPost, "/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind == KindServer {
			apiErr.Kind = KindAuth
		}
		return nil, err
	}
	if resp.User.Token == "" {
		return nil, &Error{Kind: KindAuth, Op: op, Err: errors.New("no token in response")}
	}
	c.token = resp.User.Token
	return &resp, nil
}

// --- Transport ---

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindParse, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.send(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindParse, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// send executes a request and maps transport and status failures to *Error.
// The caller owns the response body on success.
func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader) (*http.Response, error) {
	if !c.HasToken() && strings.HasPrefix(path, "/api/") {
		return nil, &Error{Kind: KindAuth, Op: op, Err: ErrNotAuthenticated}
	}
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("execute request: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		kind := KindServer
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = KindAuth
		}
		return nil, &Error{Kind: kind, Op: op, Status: resp.StatusCode}
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
}
