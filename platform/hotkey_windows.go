//go:build windows

package platform

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	peekMessage         = user32.NewProc("PeekMessageW")
	getAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	wmKeydown    = 0x0100
	wmKeyup      = 0x0101
	wmSyskeydown = 0x0104
	wmSyskeyup   = 0x0105
	pmRemove     = 0x0001
)

const (
	vkShift = 0x10
	vkCtrl  = 0x11
	vkAlt   = 0x12
	vkLwin  = 0x5B // Left Windows key
	vkRwin  = 0x5C // Right Windows key
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// WindowsHotkey implements the Hotkey interface with a low-level
// keyboard hook. The combo can be swapped at runtime via Rebind without
// touching the installed hook.
type WindowsHotkey struct {
	mu       sync.Mutex
	combo    KeyCombo
	engaged  bool // combo currently held, suppresses repeat triggers
	triggers chan struct{}
	hook     uintptr
	done     chan struct{}
}

// NewHotkey creates a new Windows hotkey listener
func NewHotkey() Hotkey {
	return &WindowsHotkey{}
}

// Listen installs the keyboard hook and starts emitting triggers for the
// given combo. The hook is removed when ctx is cancelled.
func (h *WindowsHotkey) Listen(ctx context.Context, combo KeyCombo) (<-chan struct{}, error) {
	h.mu.Lock()
	h.combo = combo
	h.engaged = false
	h.triggers = make(chan struct{}, 4)
	h.done = make(chan struct{})
	h.mu.Unlock()

	errCh := make(chan error, 1)
	go h.runHook(errCh)

	// Wait for hook installation before reporting success.
	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	go func() {
		<-ctx.Done()
		close(h.done)
		h.mu.Lock()
		hook := h.hook
		h.hook = 0
		h.mu.Unlock()
		if hook != 0 {
			unhookWindowsHookEx.Call(hook)
		}
	}()

	return h.triggers, nil
}

// Rebind replaces the active combo. Any half-pressed state from the old
// combo is discarded so the old chord cannot fire one last trigger.
func (h *WindowsHotkey) Rebind(combo KeyCombo) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.combo = combo
	h.engaged = false
	return nil
}

// runHook installs the hook and pumps messages on a locked OS thread.
// Low-level keyboard hooks require a message loop on the installing
// thread or Windows silently drops the hook.
func (h *WindowsHotkey) runHook(errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hookProc := func(nCode int32, wParam uintptr, lParam uintptr) uintptr {
		if nCode >= 0 {
			kbInfo := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			h.handleKeyEvent(wParam, kbInfo)
		}
		r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return r
	}

	hook, _, err := setWindowsHookEx.Call(
		whKeyboardLL,
		windows.NewCallback(hookProc),
		0,
		0,
	)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookEx failed: %w", err)
		return
	}

	h.mu.Lock()
	h.hook = hook
	h.mu.Unlock()

	errCh <- nil

	var m msg
	for {
		select {
		case <-h.done:
			return
		default:
			r, _, _ := peekMessage.Call(
				uintptr(unsafe.Pointer(&m)),
				0,
				0,
				0,
				pmRemove,
			)
			if r != 0 {
				continue
			}
			runtime.Gosched()
		}
	}
}

// handleKeyEvent runs inside the hook callback. It edge-detects the
// combo: a trigger fires when the chord first completes and nothing
// more fires until the chord is released.
func (h *WindowsHotkey) handleKeyEvent(wParam uintptr, kbInfo *kbdllhookstruct) {
	isKeyDown := wParam == wmKeydown || wParam == wmSyskeydown

	h.mu.Lock()
	combo := h.combo
	h.mu.Unlock()

	if !h.isComboKey(combo, kbInfo.vkCode) {
		return
	}

	if isKeyDown {
		if !h.chordComplete(combo, kbInfo.vkCode) {
			return
		}
		h.mu.Lock()
		fire := !h.engaged
		h.engaged = true
		h.mu.Unlock()
		if fire {
			// Never block the hook thread; if the consumer is busy the
			// trigger is dropped.
			select {
			case h.triggers <- struct{}{}:
			default:
			}
		}
		return
	}

	// Key up on any combo key releases the chord.
	h.mu.Lock()
	h.engaged = false
	h.mu.Unlock()
}

// isComboKey reports whether vk participates in the combo.
func (h *WindowsHotkey) isComboKey(combo KeyCombo, vk uint32) bool {
	if combo.Key != 0 && vk == uint32(combo.Key) {
		return true
	}
	switch vk {
	case vkCtrl:
		return combo.Ctrl
	case vkShift:
		return combo.Shift
	case vkAlt:
		return combo.Alt
	case vkLwin, vkRwin:
		return combo.Win
	}
	return false
}

// chordComplete checks the full chord: for a combo with a trigger key,
// the pressed key must be the trigger key and all modifiers must be
// down; for a modifier-only combo, all modifiers must be down.
func (h *WindowsHotkey) chordComplete(combo KeyCombo, vk uint32) bool {
	if combo.Key != 0 && vk != uint32(combo.Key) {
		return false
	}
	ctrl := h.isKeyPressed(vkCtrl)
	shift := h.isKeyPressed(vkShift)
	alt := h.isKeyPressed(vkAlt)
	win := h.isKeyPressed(vkLwin) || h.isKeyPressed(vkRwin)

	return ctrl == combo.Ctrl &&
		shift == combo.Shift &&
		alt == combo.Alt &&
		win == combo.Win
}

func (h *WindowsHotkey) isKeyPressed(vk int) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}
