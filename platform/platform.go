package platform

import (
	"context"
)

// KeyCombo represents a keyboard key combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   int // Virtual key code, 0 for modifier-only combos
}

// Hotkey provides global hotkey detection. Listen emits one value per
// physical press-release cycle of the bound combo; key repeat while the
// combo is held never produces extra triggers.
type Hotkey interface {
	Listen(ctx context.Context, combo KeyCombo) (<-chan struct{}, error)
	// Rebind swaps the active combo without reinstalling the OS hook.
	// The old combo stops triggering as soon as Rebind returns.
	Rebind(combo KeyCombo) error
}

// Clipboard provides clipboard access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// Paster simulates the OS paste chord
type Paster interface {
	Paste() error
}

// Level is the severity of a desktop notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows ephemeral desktop notifications
type Notifier interface {
	Notify(level Level, title, message string) error
}
