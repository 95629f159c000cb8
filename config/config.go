package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Language identifies a correction prompt template.
type Language string

const (
	LangPortuguese Language = "portuguese"
	LangEnglish    Language = "english"
	LangPTtoEN     Language = "pt_to_en"
)

// Languages lists the supported prompt languages.
func Languages() []Language {
	return []Language{LangPortuguese, LangEnglish, LangPTtoEN}
}

// Valid reports whether l is a supported prompt language.
func (l Language) Valid() bool {
	switch l {
	case LangPortuguese, LangEnglish, LangPTtoEN:
		return true
	}
	return false
}

type Config struct {
	Hotkey     HotkeyConfig     `toml:"hotkey"`
	Correction CorrectionConfig `toml:"correction"`
	Web        WebConfig        `toml:"web"`
}

type HotkeyConfig struct {
	Combo string `toml:"combo"`
}

type CorrectionConfig struct {
	Provider          string   `toml:"provider"`
	Model             string   `toml:"model"`
	Language          Language `toml:"language"`
	APIKey            string   `toml:"api_key"`
	AutoPaste         bool     `toml:"auto_paste"`
	ShowNotifications bool     `toml:"show_notifications"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	MaxRetries        int      `toml:"max_retries"`
	MaxTextLength     int      `toml:"max_text_length"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Combo: "ctrl+shift+c",
		},
		Correction: CorrectionConfig{
			Provider:          "gemini",
			Model:             "gemini-1.5-flash",
			Language:          LangPortuguese,
			APIKey:            "",
			AutoPaste:         true,
			ShowNotifications: true,
			TimeoutSeconds:    20,
			MaxRetries:        2,
			MaxTextLength:     10000,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8723,
		},
	}
}

// ConfigPath returns the path to the configuration file, creating the
// config directory if needed.
func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}

	configDir := filepath.Join(base, "textfix")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the TOML file.
// If the file doesn't exist, it creates it with default values.
// Environment variables override the API key from the file (see applyEnv).
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := save(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.applyEnv()
		return cfg, nil
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile loads the configuration from an explicit path, overlaying the
// file contents on top of the defaults so missing keys keep their default
// values.
func LoadFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// envKeys maps providers to the environment variable consulted for the
// API key. The environment always wins over the config file value so a
// key never has to be written to disk.
var envKeys = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
}

func (c *Config) applyEnv() {
	if env, ok := envKeys[c.Correction.Provider]; ok {
		if v := os.Getenv(env); v != "" {
			c.Correction.APIKey = v
		}
	}
}

// Validate checks the parts of the configuration that would make the app
// unusable at runtime.
func (c *Config) Validate() error {
	if _, err := ParseHotkey(c.Hotkey.Combo); err != nil {
		return fmt.Errorf("invalid hotkey combo %q: %w", c.Hotkey.Combo, err)
	}
	if !c.Correction.Language.Valid() {
		return fmt.Errorf("unsupported language: %s", c.Correction.Language)
	}
	if c.Correction.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if c.Correction.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

// Save writes the configuration back to the default config file.
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return save(configPath, c)
}

// save writes the configuration atomically: encode to a temp file in the
// same directory, then rename over the target so a crash mid-write never
// leaves a truncated config behind.
func save(path string, cfg *Config) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

// KeyCombo represents a parsed keyboard combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   string
}

// ParseHotkey parses a hotkey combo string like "ctrl+shift+c" or "alt+s".
// At least one modifier is required; the trigger key is optional (a
// modifier-only chord is allowed).
func ParseHotkey(combo string) (KeyCombo, error) {
	var kc KeyCombo

	combo = strings.TrimSpace(combo)
	if combo == "" {
		return kc, fmt.Errorf("empty hotkey combo")
	}

	parts := strings.Split(strings.ToLower(combo), "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)

		isModifier := true
		switch part {
		case "ctrl", "control":
			kc.Ctrl = true
		case "shift":
			kc.Shift = true
		case "alt":
			kc.Alt = true
		case "win", "windows", "super":
			kc.Win = true
		default:
			isModifier = false
		}

		if !isModifier {
			if i != len(parts)-1 {
				return kc, fmt.Errorf("unknown modifier: %s", part)
			}
			kc.Key = part
		}
	}

	if !kc.Ctrl && !kc.Shift && !kc.Alt && !kc.Win {
		return kc, fmt.Errorf("no modifiers specified in combo")
	}

	return kc, nil
}
