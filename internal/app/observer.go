package app

import (
	"github.com/llehouerou/shelf/internal/engine"
	"github.com/llehouerou/shelf/internal/session"
)

// liveSession is the session Observer. It is held by pointer so every copy
// of the value-typed Model sees the same notifications.
type liveSession struct {
	title    string
	author   string
	duration float64
	current  float64
	clock    string
	state    engine.State

	err     string
	errKind session.Kind
}

func (l *liveSession) OnSessionStarted(title, author string, duration, current float64) {
	l.title, l.author = title, author
	l.duration, l.current = duration, current
	l.clock = session.FormatTime(current)
	l.err = ""
}

func (l *liveSession) OnPositionTick(current float64, formatted string) {
	l.current, l.clock = current, formatted
}

func (l *liveSession) OnStateChanged(st engine.State) {
	l.state = st
}

func (l *liveSession) OnSessionError(kind session.Kind, message string) {
	l.err, l.errKind = message, kind
}

var _ session.Observer = (*liveSession)(nil)
