package session

import (
	"errors"

	"github.com/llehouerou/shelf/internal/abs"
)

// Kind classifies session failures for observers and logs.
type Kind int

const (
	KindNetwork Kind = iota
	KindServer
	KindParse
	KindAuth
	// KindEngineFault is a decode or device failure during playback.
	KindEngineFault
	// KindSupersede marks a start result that arrived after a newer request.
	KindSupersede
	// KindSessionStartFailed is reported when a session could not be opened.
	KindSessionStartFailed
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
	case KindEngineFault:
		return "engine fault"
	case KindSupersede:
		return "superseded"
	case KindSessionStartFailed:
		return "session start failed"
	default:
		return "unknown"
	}
}

// KindOf maps an error to its kind. Remote errors keep their transport kind;
// anything else is treated as a server-side failure.
func KindOf(err error) Kind {
	if errors.Is(err, abs.ErrNoTrack) {
		return KindParse
	}
	kind, ok := abs.KindOf(err)
	if !ok {
		return KindServer
	}
	switch kind {
	case abs.KindNetwork:
		return KindNetwork
	case abs.KindParse:
		return KindParse
	case abs.KindAuth:
		return KindAuth
	case abs.KindServer:
		return KindServer
	}
	return KindServer
}
