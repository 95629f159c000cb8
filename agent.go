package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rfsouza/textfix/config"
	"rfsouza/textfix/correct"
	"rfsouza/textfix/platform"
	"rfsouza/textfix/storage"
)

// Corrector is the slice of correct.Service the agent depends on.
type Corrector interface {
	Correct(ctx context.Context, req correct.Request) (correct.Result, error)
}

// StatusSink receives live correction updates, e.g. for the web
// dashboard. Implementations must not block.
type StatusSink interface {
	CorrectionStatus(id, status string)
	CorrectionSaved(c *storage.Correction)
}

// Agent coordinates the hotkey listener, the correction service and the
// clipboard. It owns the single-correction-at-a-time guarantee.
type Agent struct {
	store     *config.Store
	hotkey    platform.Hotkey
	clipboard platform.Clipboard
	paster    platform.Paster
	notifier  platform.Notifier
	db        *storage.DB
	status    StatusSink

	// svcMu guards service and provider: rebuildService swaps them from
	// the Run goroutine while correction cycles read them concurrently.
	svcMu    sync.RWMutex
	service  Corrector
	provider correct.Provider

	inFlight    atomic.Bool
	settleDelay time.Duration
}

// NewAgent creates a new agent instance wired to the real platform
// adapters and a provider built from the current configuration.
func NewAgent(ctx context.Context, store *config.Store, db *storage.DB, status StatusSink) (*Agent, error) {
	a := &Agent{
		store:       store,
		hotkey:      platform.NewHotkey(),
		clipboard:   platform.NewClipboard(),
		paster:      platform.NewPaster(),
		notifier:    platform.NewNotifier("TextFix"),
		db:          db,
		status:      status,
		settleDelay: 100 * time.Millisecond,
	}

	if err := a.rebuildService(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// rebuildService recreates the provider and correction service from the
// current settings. Called at startup and after every settings change.
func (a *Agent) rebuildService(ctx context.Context) error {
	cfg := a.store.Get()

	provider, err := correct.NewProvider(ctx, cfg.Correction)
	if err != nil {
		return fmt.Errorf("failed to create correction provider: %w", err)
	}

	a.swapService(provider, correct.NewService(provider, cfg.Correction))
	return nil
}

// swapService installs a new provider and service, releasing whatever
// connections the replaced provider held.
func (a *Agent) swapService(provider correct.Provider, svc Corrector) {
	a.svcMu.Lock()
	old := a.provider
	a.provider = provider
	a.service = svc
	a.svcMu.Unlock()

	closeProvider(old)
}

// corrector returns the active correction service.
func (a *Agent) corrector() Corrector {
	a.svcMu.RLock()
	defer a.svcMu.RUnlock()
	return a.service
}

// Close releases the active provider. Call after Run has returned.
func (a *Agent) Close() {
	a.svcMu.RLock()
	provider := a.provider
	a.svcMu.RUnlock()

	closeProvider(provider)
}

func closeProvider(p correct.Provider) {
	if c, ok := p.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close correction provider", "error", err)
		}
	}
}

// Run starts the hotkey listener and processes triggers and settings
// changes until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	cfg := a.store.Get()

	combo, ok := a.resolveCombo(cfg, cfg.Hotkey.Combo)
	triggers, err := a.hotkey.Listen(ctx, combo)
	if err != nil {
		return fmt.Errorf("failed to start hotkey listener: %w", err)
	}

	if ok {
		slog.Info("TextFix started", "hotkey", cfg.Hotkey.Combo, "provider", cfg.Correction.Provider)
	} else {
		slog.Warn("TextFix started without an active hotkey, fix the combo in settings")
	}

	activeCombo := cfg.Hotkey.Combo

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-triggers:
			// Run the cycle off the listener loop so the hotkey stays
			// responsive; the in-flight guard serializes the work.
			go a.TriggerCorrection(ctx)

		case <-a.store.Changed():
			newCfg := a.store.Get()

			if newCfg.Hotkey.Combo != activeCombo {
				combo, ok := a.resolveCombo(newCfg, newCfg.Hotkey.Combo)
				if err := a.hotkey.Rebind(combo); err != nil {
					slog.Error("Failed to rebind hotkey", "combo", newCfg.Hotkey.Combo, "error", err)
				} else if ok {
					slog.Info("Hotkey rebound", "combo", newCfg.Hotkey.Combo)
					activeCombo = newCfg.Hotkey.Combo
				}
			}

			if err := a.rebuildService(ctx); err != nil {
				slog.Error("Failed to apply provider settings", "error", err)
				a.notify(newCfg, platform.LevelError, "Settings",
					"Provider configuration is invalid: "+err.Error())
			}
		}
	}
}

// resolveCombo parses a combo string into platform key codes. An
// invalid combo is reported once and mapped to an inert chord so the
// app keeps running without an active hotkey.
func (a *Agent) resolveCombo(cfg config.Config, comboStr string) (platform.KeyCombo, bool) {
	combo, err := config.ParseHotkey(comboStr)
	if err == nil {
		var vk int
		vk, err = platform.VKCode(combo.Key)
		if err == nil {
			return platform.KeyCombo{
				Ctrl:  combo.Ctrl,
				Shift: combo.Shift,
				Alt:   combo.Alt,
				Win:   combo.Win,
				Key:   vk,
			}, true
		}
	}

	slog.Error("Invalid hotkey combo", "combo", comboStr, "error", err)
	a.notify(cfg, platform.LevelError, "Hotkey",
		fmt.Sprintf("Invalid hotkey combo %q, hotkey disabled until fixed in settings", comboStr))
	return platform.KeyCombo{}, false
}

// TriggerCorrection runs one full correction cycle: read clipboard,
// correct, write back, optionally paste, notify. At most one cycle runs
// at a time; triggers while busy are dropped.
func (a *Agent) TriggerCorrection(ctx context.Context) {
	if !a.inFlight.CompareAndSwap(false, true) {
		slog.Info("Correction already in progress, ignoring trigger")
		return
	}
	// The guard must clear on every exit path or the hotkey goes dead
	// for the rest of the session.
	defer a.inFlight.Store(false)

	id := uuid.NewString()[:8]
	cfg := a.store.Get()
	start := time.Now()

	text, err := a.clipboard.Get()
	if err != nil {
		// Read faults mean no usable text; same as an empty clipboard.
		slog.Warn("Clipboard read failed", "id", id, "error", err)
		text = ""
	}

	if strings.TrimSpace(text) == "" {
		slog.Info("Clipboard is empty, nothing to correct", "id", id)
		a.notify(cfg, platform.LevelInfo, "", "Clipboard is empty. Copy some text first!")
		return
	}

	slog.Info("Correction started", "id", id, "chars", len(text), "language", cfg.Correction.Language)
	a.broadcastStatus(id, "busy")

	timeout := time.Duration(cfg.Correction.TimeoutSeconds) * time.Second
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := a.corrector().Correct(cctx, correct.Request{
		Text:     text,
		Language: cfg.Correction.Language,
	})

	record := &storage.Correction{
		CorrectionID: id,
		Language:     string(cfg.Correction.Language),
		InputChars:   len(text),
		Provider:     cfg.Correction.Provider,
		Model:        cfg.Correction.Model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}

	if err != nil {
		kind := correct.KindOf(err)
		slog.Error("Correction failed", "id", id, "kind", kind, "error", err)

		record.Success = false
		record.ErrorKind = string(kind)
		record.ErrorMessage = err.Error()
		a.saveRecord(record)

		a.notify(cfg, platform.LevelError, "Correction failed", failureMessage(kind))
		a.broadcastStatus(id, "error")
		return
	}

	record.Success = true
	record.Attempts = result.Attempts
	record.OutputChars = len(result.Corrected)
	record.Changed = result.Changed()

	if err := a.clipboard.Set(result.Corrected); err != nil {
		slog.Error("Failed to write corrected text to clipboard", "id", id, "error", err)
		record.Success = false
		record.ErrorKind = "clipboard"
		record.ErrorMessage = err.Error()
		a.saveRecord(record)

		a.notify(cfg, platform.LevelError, "Correction failed", "Could not write the corrected text to the clipboard.")
		a.broadcastStatus(id, "error")
		return
	}

	pasted := false
	if cfg.Correction.AutoPaste {
		// Let the clipboard write propagate before the paste chord.
		time.Sleep(a.settleDelay)
		if err := a.paster.Paste(); err != nil {
			slog.Warn("Auto-paste failed, corrected text stays on the clipboard", "id", id, "error", err)
		} else {
			pasted = true
		}
	}

	a.saveRecord(record)
	slog.Info("Correction finished", "id", id,
		"changed", record.Changed, "attempts", result.Attempts, "elapsed", result.Elapsed)

	a.notify(cfg, platform.LevelSuccess, "", successMessage(result, pasted))
	a.broadcastStatus(id, "done")
	a.broadcastSaved(record)
}

// notify dispatches a desktop notification, honoring the
// show_notifications setting. Suppressed or failed notifications are
// still logged; nothing here ever reaches the caller.
func (a *Agent) notify(cfg config.Config, level platform.Level, title, message string) {
	slog.Info("Notification", "level", level, "title", title, "message", message,
		"shown", cfg.Correction.ShowNotifications)

	if !cfg.Correction.ShowNotifications {
		return
	}
	if err := a.notifier.Notify(level, title, message); err != nil {
		slog.Warn("Failed to show notification", "error", err)
	}
}

func (a *Agent) saveRecord(c *storage.Correction) {
	if a.db == nil {
		return
	}
	if err := a.db.SaveCorrection(c); err != nil {
		slog.Warn("Failed to save correction history", "error", err)
	}
}

func (a *Agent) broadcastStatus(id, status string) {
	if a.status != nil {
		a.status.CorrectionStatus(id, status)
	}
}

func (a *Agent) broadcastSaved(c *storage.Correction) {
	if a.status != nil {
		a.status.CorrectionSaved(c)
	}
}

// successMessage builds the success notification body with a short
// preview of the corrected text.
func successMessage(result correct.Result, pasted bool) string {
	action := "copied to clipboard"
	if pasted {
		action = "pasted"
	}

	preview := result.Corrected
	if r := []rune(preview); len(r) > 80 {
		preview = string(r[:77]) + "..."
	}

	if !result.Changed() {
		return fmt.Sprintf("No changes needed. Text %s.\n\n%s", action, preview)
	}
	return fmt.Sprintf("Text corrected and %s!\n\n%s", action, preview)
}

// failureMessage maps an error kind to a user-facing explanation.
func failureMessage(kind correct.Kind) string {
	switch kind {
	case correct.KindAuth:
		return "The API key was rejected. Check your provider credentials."
	case correct.KindQuota:
		return "The provider rate limit or quota was exceeded. Try again later."
	case correct.KindTimeout:
		return "The correction request timed out."
	case correct.KindNetwork:
		return "Could not reach the correction service. Check your connection."
	case correct.KindEmptyResponse:
		return "The provider returned an empty correction. Your text was left untouched."
	case correct.KindConfig:
		return "The provider configuration is invalid. Check your settings."
	default:
		return "The correction failed. Your text was left untouched."
	}
}
