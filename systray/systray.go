package systray

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/getlantern/systray"

	"rfsouza/textfix/config"
)

// Manager runs the system tray icon and menu.
type Manager struct {
	store     *config.Store
	webPort   int
	iconData  []byte
	onCorrect func()
	quit      chan struct{}
}

// NewManager creates a new tray manager. onCorrect is invoked when the
// user clicks "Correct Now"; it must not block. A webPort of zero hides
// the dashboard entry.
func NewManager(store *config.Store, webPort int, iconData []byte, onCorrect func()) *Manager {
	return &Manager{
		store:     store,
		webPort:   webPort,
		iconData:  iconData,
		onCorrect: onCorrect,
		quit:      make(chan struct{}),
	}
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *Manager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that is closed when the user clicks Quit
func (m *Manager) WaitForQuit() <-chan struct{} {
	return m.quit
}

// onReady is called when the systray is ready
func (m *Manager) onReady() {
	if len(m.iconData) > 0 {
		systray.SetIcon(m.iconData)
	}

	systray.SetTitle("TextFix")
	systray.SetTooltip("TextFix - AI Text Correction")

	cfg := m.store.Get()

	mCorrect := systray.AddMenuItem("Correct Now", "Correct the current clipboard text")

	// Only offer the dashboard entry when the web server is running.
	var dashboardClicks <-chan struct{}
	if m.DashboardURL() != "" {
		mDashboard := systray.AddMenuItem("Open Dashboard", "Open the TextFix settings dashboard")
		dashboardClicks = mDashboard.ClickedCh
	}
	systray.AddSeparator()
	mAutoPaste := systray.AddMenuItemCheckbox("Auto-paste", "Paste the corrected text automatically", cfg.Correction.AutoPaste)
	mNotify := systray.AddMenuItemCheckbox("Notifications", "Show desktop notifications", cfg.Correction.ShowNotifications)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit TextFix")

	go func() {
		for {
			select {
			case <-mCorrect.ClickedCh:
				if m.onCorrect != nil {
					m.onCorrect()
				}

			case <-dashboardClicks:
				m.openDashboard()

			case <-mAutoPaste.ClickedCh:
				m.toggleAutoPaste(mAutoPaste)

			case <-mNotify.ClickedCh:
				m.toggleNotifications(mNotify)

			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

// onExit is called when the systray is exiting
func (m *Manager) onExit() {
	slog.Info("System tray exited")
}

func (m *Manager) toggleAutoPaste(item *systray.MenuItem) {
	cfg := m.store.Get()
	cfg.Correction.AutoPaste = !cfg.Correction.AutoPaste
	m.applyToggle(&cfg, item, cfg.Correction.AutoPaste)
}

func (m *Manager) toggleNotifications(item *systray.MenuItem) {
	cfg := m.store.Get()
	cfg.Correction.ShowNotifications = !cfg.Correction.ShowNotifications
	m.applyToggle(&cfg, item, cfg.Correction.ShowNotifications)
}

func (m *Manager) applyToggle(cfg *config.Config, item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}

	m.store.Set(cfg)
	if err := cfg.Save(); err != nil {
		slog.Error("Failed to save settings from tray", "error", err)
	}
}

// DashboardURL returns the local dashboard address, or "" when the web
// server is disabled.
func (m *Manager) DashboardURL() string {
	if m.webPort <= 0 {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", m.webPort)
}

// openDashboard opens the web UI in the default browser
func (m *Manager) openDashboard() {
	url := m.DashboardURL()
	if url == "" {
		return
	}
	slog.Info("Opening dashboard", "url", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}
