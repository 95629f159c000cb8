package platform

import (
	"github.com/gen2brain/beeep"
)

// DesktopNotifier implements the Notifier interface with native desktop
// notifications.
type DesktopNotifier struct {
	appName string
}

// NewNotifier creates a desktop notifier. appName is used as the
// notification title prefix.
func NewNotifier(appName string) Notifier {
	return &DesktopNotifier{appName: appName}
}

// Notify shows an ephemeral notification. Errors are returned for the
// caller to log; they must never abort a correction cycle.
func (n *DesktopNotifier) Notify(level Level, title, message string) error {
	full := n.appName
	if title != "" {
		full += " - " + title
	}

	if level == LevelError {
		return beeep.Alert(full, message, "")
	}
	return beeep.Notify(full, message, "")
}
