package platform

import (
	"fmt"
	"time"

	"github.com/micmonay/keybd_event"
)

// KeyPaster implements the Paster interface by synthesizing the Ctrl+V
// chord through synthetic keyboard events.
type KeyPaster struct{}

// NewPaster creates a new paste simulator
func NewPaster() Paster {
	return &KeyPaster{}
}

// Paste simulates the Ctrl+V keypress.
func (p *KeyPaster) Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("failed to init key bonding: %w", err)
	}

	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("failed to send paste chord: %w", err)
	}

	// Give the foreground app a moment to consume the chord.
	time.Sleep(20 * time.Millisecond)

	return nil
}
