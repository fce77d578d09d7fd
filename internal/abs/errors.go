package abs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork is a transport failure (DNS, refused, timeout).
	KindNetwork Kind = iota
	// KindServer is a non-2xx response.
	KindServer
	// KindParse is a malformed response body.
	KindParse
	// KindAuth is a rejected credential.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindParse:
		return "parse"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// ErrNotAuthenticated is returned when a call needs a token and none is set.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNoTrack is returned when a session carries no playable audio track.
var ErrNoTrack = errors.New("session has no audio track")

// Error is the error type returned by every Client call.
type Error struct {
	Kind   Kind
	Op     string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error: HTTP %d", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Hint suggests a fix for failures the user can act on.
func (e *Error) Hint() string {
	switch {
	case e.Kind == KindAuth:
		return "run `shelf login` to get a new token"
	case e.Kind == KindNetwork:
		return "is the server reachable?"
	case e.Status == http.StatusNotFound:
		return "the book may have been removed from the library"
	}
	return ""
}

// KindOf returns the kind of err, and false if err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}
