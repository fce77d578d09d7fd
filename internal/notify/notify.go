// Package notify provides desktop notifications via D-Bus.
package notify

import (
	"fmt"
	"sync"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// defaultTimeout is how long session notifications stay visible, in ms.
const defaultTimeout int32 = 5000

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// NowListening announces a started session.
func NowListening(title, author, position, icon string) Notification {
	body := author
	if position != "" && position != "0:00" {
		if body != "" {
			body += "\n"
		}
		body += "Resuming at " + position
	}
	return Notification{
		Title:   "Now listening: " + title,
		Body:    body,
		Icon:    iconOr(icon, "audio-x-generic"),
		Timeout: defaultTimeout,
		Urgency: UrgencyLow,
	}
}

// Finished announces a book played to the end.
func Finished(title, author, icon string) Notification {
	return Notification{
		Title:   "Finished: " + title,
		Body:    author,
		Icon:    iconOr(icon, "audio-x-generic"),
		Timeout: defaultTimeout,
		Urgency: UrgencyNormal,
	}
}

// PlaybackFailed reports an engine fault.
func PlaybackFailed(title, message string) Notification {
	summary := "Playback stopped"
	if title != "" {
		summary = fmt.Sprintf("Playback stopped: %s", title)
	}
	return Notification{
		Title:   summary,
		Body:    message,
		Icon:    "dialog-error",
		Timeout: -1,
		Urgency: UrgencyCritical,
	}
}

func iconOr(icon, fallback string) string {
	if icon == "" {
		return fallback
	}
	return icon
}

// Nop returns a notifier that discards notifications.
func Nop() Notifier { return nopNotifier{} }

// Recorder is a Notifier that keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	next uint32
}

func (r *Recorder) Notify(n Notification) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	r.next++
	return r.next, nil
}

func (r *Recorder) Close(uint32) error { return nil }

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

var _ Notifier = (*Recorder)(nil)
