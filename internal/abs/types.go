package abs

import (
	"os"
	"strings"
)

// PlaybackSession is a server-side listening session returned by /play.
type PlaybackSession struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	LibraryItemID string       `json:"libraryItemId"`
	DisplayTitle  string       `json:"displayTitle"`
	DisplayAuthor string       `json:"displayAuthor"`
	CoverPath     string       `json:"coverPath"`
	Duration      float64      `json:"duration"`
	StartTime     float64      `json:"startTime"`
	CurrentTime   float64      `json:"currentTime"`
	AudioTracks   []AudioTrack `json:"audioTracks"`
}

// AudioTrack is one streamable file of a session.
type AudioTrack struct {
	Index       int     `json:"index"`
	StartOffset float64 `json:"startOffset"`
	Duration    float64 `json:"duration"`
	Title       string  `json:"title"`
	ContentURL  string  `json:"contentUrl"`
	MimeType    string  `json:"mimeType"`
}

// FirstTrack returns the primary audio track, or nil if the session has none.
func (s *PlaybackSession) FirstTrack() *AudioTrack {
	if len(s.AudioTracks) == 0 {
		return nil
	}
	return &s.AudioTracks[0]
}

// MediaProgress is the user's stored progress for a library item.
type MediaProgress struct {
	ID            string  `json:"id"`
	LibraryItemID string  `json:"libraryItemId"`
	Duration      float64 `json:"duration"`
	Progress      float64 `json:"progress"` // 0..1
	CurrentTime   float64 `json:"currentTime"`
	IsFinished    bool    `json:"isFinished"`
	LastUpdate    int64   `json:"lastUpdate"` // unix millis
}

// Library is a collection of items on the server.
type Library struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Icon      string `json:"icon"`
}

// Author is a person credited on an expanded item.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Chapter is a named span of a book, in seconds from the start.
type Chapter struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// Duration returns the chapter length in seconds.
func (c Chapter) Duration() float64 { return max(c.End-c.Start, 0) }

// LibraryItem is a book as listed by the library endpoints. Chapters and
// Authors are only filled by the expanded item endpoint.
type LibraryItem struct {
	ID        string `json:"id"`
	LibraryID string `json:"libraryId"`
	MediaType string `json:"mediaType"`
	AddedAt   int64  `json:"addedAt"` // unix millis
	Media     struct {
		Metadata struct {
			Title        string   `json:"title"`
			Subtitle     string   `json:"subtitle"`
			AuthorName   string   `json:"authorName"`
			AuthorNameLF string   `json:"authorNameLF"`
			Authors      []Author `json:"authors"`
			SeriesName   string   `json:"seriesName"`
		} `json:"metadata"`
		CoverPath string    `json:"coverPath"`
		Duration  float64   `json:"duration"`
		Chapters  []Chapter `json:"chapters"`
	} `json:"media"`
	UserMediaProgress *MediaProgress `json:"userMediaProgress"`
}

// Title returns the item title.
func (i LibraryItem) Title() string { return i.Media.Metadata.Title }

// Author returns the item author.
func (i LibraryItem) Author() string {
	md := i.Media.Metadata
	if md.AuthorName != "" || len(md.Authors) == 0 {
		return md.AuthorName
	}
	names := make([]string, len(md.Authors))
	for n, a := range md.Authors {
		names[n] = a.Name
	}
	return strings.Join(names, ", ")
}

// SortAuthor returns the "Last, First" author form when the server has one.
func (i LibraryItem) SortAuthor() string {
	if lf := i.Media.Metadata.AuthorNameLF; lf != "" {
		return lf
	}
	return i.Author()
}

// ListenedTo returns the stored position in seconds and whether the book
// is marked finished.
func (i LibraryItem) ListenedTo() (position float64, finished bool) {
	if i.UserMediaProgress == nil {
		return 0, false
	}
	return i.UserMediaProgress.CurrentTime, i.UserMediaProgress.IsFinished
}

// Progress returns the listening progress as a fraction in [0,1].
func (i LibraryItem) Progress() float64 {
	if i.UserMediaProgress == nil {
		return 0
	}
	return i.UserMediaProgress.Progress
}

// ServerStatus is the unauthenticated /status payload.
type ServerStatus struct {
	IsInit      bool     `json:"isInit"`
	AuthMethods []string `json:"authMethods"`
}

// User is the account returned by /login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
	Type     string `json:"type"`
}

// LoginResponse is the /login payload.
type LoginResponse struct {
	User                 User   `json:"user"`
	UserDefaultLibraryID string `json:"userDefaultLibraryId"`
}

// DeviceInfo identifies this client to the server when opening sessions.
type DeviceInfo struct {
	DeviceID      string `json:"deviceId"`
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	DeviceName    string `json:"deviceName"`
	DeviceType    string `json:"deviceType"`
}

// DefaultDeviceInfo returns the device descriptor for this host.
// An empty deviceID falls back to a fixed identifier.
func DefaultDeviceInfo(deviceID, version string) DeviceInfo {
	if deviceID == "" {
		deviceID = "shelf-terminal"
	}
	return DeviceInfo{
		DeviceID:      deviceID,
		ClientName:    "shelf",
		ClientVersion: version,
		DeviceName:    hostname(),
		DeviceType:    "desktop",
	}
}

func hostname() string {
	for _, key := range []string{"HOSTNAME", "HOST"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "linux-desktop"
}

// SupportedMimeTypes lists the formats the local decoders can play.
var SupportedMimeTypes = []string{"audio/mpeg", "audio/mp4", "audio/x-m4b", "audio/flac", "audio/wav"}

type playRequest struct {
	DeviceInfo         DeviceInfo `json:"deviceInfo"`
	SupportedMimeTypes []string   `json:"supportedMimeTypes"`
	MediaPlayer        string     `json:"mediaPlayer"`
	ForceDirectPlay    bool       `json:"forceDirectPlay"`
	ForceTranscode     bool       `json:"forceTranscode"`
}

type syncRequest struct {
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"`
	TimeListened float64 `json:"timeListened"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
