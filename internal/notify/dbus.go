//go:build linux

package notify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsIface = "org.freedesktop.Notifications"

	appName = "Shelf"
)

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// busNotifier talks to the freedesktop notification server.
type busNotifier struct {
	obj caller

	// capabilities advertised by the server at connect time
	markup bool
	body   bool
}

// New connects to the session bus. It fails when no bus is reachable;
// callers fall back to Nop.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return newBusNotifier(conn.Object(notificationsName, notificationsPath)), nil
}

func newBusNotifier(obj caller) *busNotifier {
	n := &busNotifier{obj: obj, body: true}
	var caps []string
	if err := obj.Call(notificationsIface+".GetCapabilities", 0).Store(&caps); err == nil {
		n.body = slices.Contains(caps, "body")
		n.markup = slices.Contains(caps, "body-markup")
	}
	return n
}

func (n *busNotifier) Notify(notif Notification) (uint32, error) {
	summary, body := n.render(notif)

	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant("shelf"),
		"category":      dbus.MakeVariant("x-shelf.session"),
	}
	icon := notif.Icon
	if strings.HasPrefix(icon, "/") {
		// cover art goes in as an image hint so themed icons stay the app icon
		hints["image-path"] = dbus.MakeVariant("file://" + icon)
		icon = ""
	}

	var id uint32
	err := n.obj.Call(notificationsIface+".Notify", 0,
		appName,
		notif.ReplacesID,
		icon,
		summary,
		body,
		[]string{},
		hints,
		notif.Timeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

func (n *busNotifier) Close(id uint32) error {
	if id == 0 {
		return nil
	}
	if err := n.obj.Call(notificationsIface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	return nil
}

// render adapts the text to what the server can display.
func (n *busNotifier) render(notif Notification) (summary, body string) {
	summary, body = notif.Title, notif.Body
	if !n.body {
		if body != "" {
			summary += " (" + strings.ReplaceAll(body, "\n", ", ") + ")"
		}
		return summary, ""
	}
	if n.markup {
		body = escapeMarkup(body)
	}
	return summary, body
}

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeMarkup keeps titles like "Tom & Jerry" from being read as markup.
func escapeMarkup(s string) string { return markupEscaper.Replace(s) }
