// Package notify sends best-effort desktop notifications.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

const appName = "Youtube Playlist"

// Notifier delivers a notification. Implementations may fail; callers treat
// failures as non-fatal.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop sends notifications through the platform notification service.
type Desktop struct {
	send func(title, message string, icon any) error
}

// NewDesktop returns a desktop notifier.
func NewDesktop() *Desktop {
	beeep.AppName = appName
	return &Desktop{send: beeep.Notify}
}

func (d *Desktop) Notify(title, message string) error {
	return d.send(title, message, "")
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// Send delivers a notification through n, logging and swallowing any
// failure. A nil notifier is allowed.
func Send(n Notifier, title, message string) {
	if n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("notification panicked", "title", title, "panic", r)
		}
	}()
	if err := n.Notify(title, message); err != nil {
		slog.Debug("failed to send notification", "title", title, "error", err)
	}
}
