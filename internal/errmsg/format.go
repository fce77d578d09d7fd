// Package errmsg turns errors into the one-line messages shown in the
// player bar, notifications and logs.
package errmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Op names what the user was trying to do.
type Op string

const (
	OpSessionStart Op = "start listening session"
	OpPlayback     Op = "play audiobook"
	OpSessionSync  Op = "sync progress"

	OpLoadInProgress Op = "load books in progress"
	OpLoadProgress   Op = "load saved progress"
	OpLoadLibrary    Op = "load library"
	OpLoadChapters   Op = "load chapters"
	OpCoverLoad      Op = "load cover"

	OpLogin  Op = "log in"
	OpStatus Op = "reach server"

	OpHistoryLoad   Op = "load listening history"
	OpHistorySave   Op = "save listening history"
	OpDeviceIDLoad  Op = "load device id"
	OpScrobble      Op = "scrobble"
	OpNotifyConnect Op = "connect to notification service"

	OpInitialize Op = "initialize application"
)

// Hinter is implemented by errors that know what the user can do about them.
type Hinter interface {
	Hint() string
}

// Format renders "Failed to <op>: <cause>", with the error's hint appended
// when it has one. Only the first line of the cause is kept.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Failed to %s: %s", op, cause(err))
	var h Hinter
	if errors.As(err, &h) {
		if hint := h.Hint(); hint != "" {
			msg += " (" + hint + ")"
		}
	}
	return msg
}

func cause(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	line, _, _ := strings.Cut(err.Error(), "\n")
	return strings.TrimSpace(line)
}
