package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		name    string
		combo   string
		want    KeyCombo
		wantErr bool
	}{
		{
			name:  "modifier plus key",
			combo: "ctrl+shift+c",
			want:  KeyCombo{Ctrl: true, Shift: true, Key: "c"},
		},
		{
			name:  "alt plus key",
			combo: "alt+s",
			want:  KeyCombo{Alt: true, Key: "s"},
		},
		{
			name:  "modifier only",
			combo: "ctrl+win",
			want:  KeyCombo{Ctrl: true, Win: true},
		},
		{
			name:  "mixed case and spaces",
			combo: " Ctrl + Shift + V ",
			want:  KeyCombo{Ctrl: true, Shift: true, Key: "v"},
		},
		{
			name:    "empty",
			combo:   "",
			wantErr: true,
		},
		{
			name:    "no modifiers",
			combo:   "c",
			wantErr: true,
		},
		{
			name:    "unknown modifier in the middle",
			combo:   "ctrl+foo+c",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHotkey(tt.combo)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[hotkey]
combo = "alt+s"

[correction]
language = "english"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "alt+s", cfg.Hotkey.Combo)
	assert.Equal(t, LangEnglish, cfg.Correction.Language)

	// Missing keys keep their defaults.
	assert.Equal(t, "gemini", cfg.Correction.Provider)
	assert.Equal(t, 20, cfg.Correction.TimeoutSeconds)
	assert.Equal(t, 2, cfg.Correction.MaxRetries)
	assert.True(t, cfg.Correction.AutoPaste)
}

func TestLoadFileInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := defaultConfig()
	cfg.Hotkey.Combo = "ctrl+alt+x"
	cfg.Correction.Language = LangPTtoEN
	cfg.Correction.AutoPaste = false

	require.NoError(t, save(path, cfg))

	// No temp file left behind.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvKeyPrecedence(t *testing.T) {
	t.Run("env overrides file value", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-key")

		cfg := defaultConfig()
		cfg.Correction.APIKey = "file-key"
		cfg.applyEnv()

		assert.Equal(t, "env-key", cfg.Correction.APIKey)
	})

	t.Run("file value kept when env unset", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		cfg := defaultConfig()
		cfg.Correction.APIKey = "file-key"
		cfg.applyEnv()

		assert.Equal(t, "file-key", cfg.Correction.APIKey)
	})

	t.Run("env var matches configured provider", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini-key")
		t.Setenv("OPENAI_API_KEY", "openai-key")

		cfg := defaultConfig()
		cfg.Correction.Provider = "openai"
		cfg.applyEnv()

		assert.Equal(t, "openai-key", cfg.Correction.APIKey)
	})
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	bad := defaultConfig()
	bad.Hotkey.Combo = "banana"
	assert.Error(t, bad.Validate())

	bad = defaultConfig()
	bad.Correction.Language = "klingon"
	assert.Error(t, bad.Validate())

	bad = defaultConfig()
	bad.Correction.TimeoutSeconds = 0
	assert.Error(t, bad.Validate())

	bad = defaultConfig()
	bad.Correction.MaxRetries = -1
	assert.Error(t, bad.Validate())
}

func TestLanguageValid(t *testing.T) {
	for _, l := range Languages() {
		assert.True(t, l.Valid(), "language %s should be valid", l)
	}
	assert.False(t, Language("esperanto").Valid())
}
