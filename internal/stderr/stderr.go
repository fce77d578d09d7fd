//go:build !windows

// Package stderr redirects file descriptor 2 into the application log.
// Audio backends written in C (ALSA, the AAC decoder) print diagnostics
// straight to fd 2, which would otherwise draw over the TUI.
package stderr

import (
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
)

var (
	origStderr = -1
	pipeRead   *os.File
	pipeWrite  *os.File
	done       chan struct{}
)

// Start redirects fd 2 to a pipe whose lines are logged at warn level.
// Call it before the audio device is opened. On failure the program keeps
// writing to the original stderr.
func Start(log logrus.FieldLogger) error {
	if pipeRead != nil {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(orig)
		r.Close()
		w.Close()
		return err
	}

	origStderr, pipeRead, pipeWrite = orig, r, w
	done = make(chan struct{})
	go func() {
		defer close(done)
		pump(r, log.WithField("source", "stderr"))
	}()
	return nil
}

// WriteOriginal writes to the stderr in place before Start.
func WriteOriginal(msg string) {
	fd := origStderr
	if fd < 0 {
		fd = int(os.Stderr.Fd())
	}
	_, _ = syscall.Write(fd, []byte(msg))
}

// Stop restores the original stderr and waits for buffered lines to be
// logged.
func Stop() {
	if pipeRead == nil {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)
	pipeWrite.Close()
	<-done
	pipeRead.Close()

	origStderr, pipeRead, pipeWrite = -1, nil, nil
}
