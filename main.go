package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"rfsouza/textfix/config"
	"rfsouza/textfix/storage"
	"rfsouza/textfix/systray"
	"rfsouza/textfix/web"
)

func main() {
	// Setup logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Pick up API keys from a .env file next to the binary, if present.
	// Real environment variables still win inside config.Load.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	configPath, _ := config.ConfigPath()
	slog.Info("Configuration loaded", "path", configPath)

	if err := cfg.Validate(); err != nil {
		slog.Warn("Configuration problem, some features may be disabled", "error", err)
	}

	if cfg.Correction.APIKey == "" {
		slog.Error("An API key is required. Set it in the config file or via environment variable",
			"provider", cfg.Correction.Provider, "path", configPath)
		os.Exit(1)
	}

	store := config.NewStore(cfg)

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Reload settings saved by the dashboard or edited by hand.
	if err := store.Watch(ctx, configPath); err != nil {
		slog.Warn("Config file watching disabled", "error", err)
	}

	// Correction history database lives next to the config file.
	db, err := storage.Open(filepath.Join(filepath.Dir(configPath), "textfix.db"))
	if err != nil {
		slog.Error("Failed to open history database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Local dashboard
	var sink StatusSink
	webPort := 0
	if cfg.Web.Enabled {
		srv := web.NewServer(store, db, cfg.Web.Port)
		sink = srv
		webPort = cfg.Web.Port
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("Dashboard server stopped", "error", err)
			}
		}()
	}

	// Create agent
	agent, err := NewAgent(ctx, store, db, sink)
	if err != nil {
		slog.Error("Failed to create agent", "error", err)
		os.Exit(1)
	}
	defer agent.Close()

	go func() {
		if err := agent.Run(ctx); err != nil {
			slog.Error("Agent error", "error", err)
			cancel()
		}
	}()

	// The tray must own the main thread; everything else runs behind it.
	// A zero port tells the tray there is no dashboard to open.
	tray := systray.NewManager(store, webPort, nil, func() {
		go agent.TriggerCorrection(ctx)
	})

	go func() {
		select {
		case <-tray.WaitForQuit():
			cancel()
		case <-ctx.Done():
			tray.Stop()
		}
	}()

	tray.Run()

	slog.Info("TextFix stopped")
}
