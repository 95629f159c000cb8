//go:build !windows

package platform

import (
	"context"
	"log/slog"
)

// stubHotkey is the non-Windows fallback. The global hotkey never fires;
// corrections are still reachable through the tray menu.
type stubHotkey struct{}

// NewHotkey returns the hotkey listener for this platform.
func NewHotkey() Hotkey {
	return &stubHotkey{}
}

func (h *stubHotkey) Listen(ctx context.Context, combo KeyCombo) (<-chan struct{}, error) {
	slog.Warn("Global hotkeys are only supported on Windows, use the tray menu instead")
	return make(chan struct{}), nil
}

func (h *stubHotkey) Rebind(combo KeyCombo) error {
	return nil
}
