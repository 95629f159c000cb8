package platform

import "fmt"

// vkCodes maps key names from the hotkey combo string to Windows
// virtual key codes. The codes double as portable key identifiers for
// the rest of the app.
var vkCodes = map[string]int{
	"a": 0x41, "b": 0x42, "c": 0x43, "d": 0x44, "e": 0x45,
	"f": 0x46, "g": 0x47, "h": 0x48, "i": 0x49, "j": 0x4A,
	"k": 0x4B, "l": 0x4C, "m": 0x4D, "n": 0x4E, "o": 0x4F,
	"p": 0x50, "q": 0x51, "r": 0x52, "s": 0x53, "t": 0x54,
	"u": 0x55, "v": 0x56, "w": 0x57, "x": 0x58, "y": 0x59, "z": 0x5A,
	"0": 0x30, "1": 0x31, "2": 0x32, "3": 0x33, "4": 0x34,
	"5": 0x35, "6": 0x36, "7": 0x37, "8": 0x38, "9": 0x39,
	"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73,
	"f5": 0x74, "f6": 0x75, "f7": 0x76, "f8": 0x77,
	"f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
	"space": 0x20, "enter": 0x0D, "esc": 0x1B,
	"tab": 0x09, "backspace": 0x08,
}

// VKCode returns the virtual key code for a key name.
// Returns 0 for the empty string (modifier-only hotkey).
func VKCode(key string) (int, error) {
	if key == "" {
		return 0, nil
	}
	if code, ok := vkCodes[key]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("unknown key: %s", key)
}
