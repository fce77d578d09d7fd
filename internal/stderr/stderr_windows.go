//go:build windows

package stderr

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Start leaves stderr alone: the Windows audio backend does not write to it.
func Start(logrus.FieldLogger) error { return nil }

func WriteOriginal(msg string) { _, _ = os.Stderr.WriteString(msg) }

func Stop() {}
