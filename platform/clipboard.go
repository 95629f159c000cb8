package platform

import (
	"github.com/atotto/clipboard"
)

// SystemClipboard implements the Clipboard interface over the native
// clipboard on all supported platforms.
type SystemClipboard struct{}

// NewClipboard creates a new system clipboard adapter
func NewClipboard() Clipboard {
	return &SystemClipboard{}
}

// Get retrieves text from the clipboard. Non-text content (images,
// files) yields an empty string, not an error.
func (c *SystemClipboard) Get() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		// The library reports an error for non-text content; callers
		// treat that the same as an empty clipboard.
		return "", nil
	}
	return text, nil
}

// Set replaces the clipboard content with text. Synchronous: when Set
// returns the text is available for pasting.
func (c *SystemClipboard) Set(text string) error {
	return clipboard.WriteAll(text)
}
