package errmsg

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type hinted struct{ hint string }

func (h *hinted) Error() string { return "HTTP 401" }
func (h *hinted) Hint() string  { return h.hint }

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{"nil error", OpSessionStart, nil, ""},
		{"plain cause", OpPlayback, errors.New("unsupported format"), "Failed to play audiobook: unsupported format"},
		{"timeout", OpSessionStart, fmt.Errorf("open session: %w", context.DeadlineExceeded), "Failed to start listening session: timed out"},
		{"canceled", OpLoadProgress, context.Canceled, "Failed to load saved progress: canceled"},
		{"first line only", OpPlayback, errors.New("decoder fault\n  at frame 12"), "Failed to play audiobook: decoder fault"},
		{"hint appended", OpLogin, fmt.Errorf("login: %w", &hinted{"run `shelf login`"}), "Failed to log in: login: HTTP 401 (run `shelf login`)"},
		{"empty hint ignored", OpLogin, &hinted{}, "Failed to log in: HTTP 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.op, tt.err); got != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, got, tt.expected)
			}
		})
	}
}
