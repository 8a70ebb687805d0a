package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassmark/internal/hotkey"
	"glassmark/internal/tools"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	combo, err := cfg.Combination()
	require.NoError(t, err)
	assert.True(t, combo.Equal(hotkey.DefaultCombination()))
	assert.Equal(t, tools.Pen, cfg.Tool())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hotkey.Combination = "a+b" // no modifier
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Drawing.Tool = "spraycan"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Drawing.Thickness = 0
	assert.Error(t, cfg.Validate())
}

func TestSaveAndLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Hotkey.Combination = "ctrl+shift+x"
	cfg.Drawing.Tool = "arrow"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+x", loaded.Hotkey.Combination)
	assert.Equal(t, tools.Arrow, loaded.Tool())
	assert.True(t, loaded.Hotkey.ToggleMode)
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"hotkey":{"combination":"ctrl+alt+x"}}`), 0640))
	cfg, err := NewLoader(jsonPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "ctrl+alt+x", cfg.Hotkey.Combination)

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath,
		[]byte("hotkey:\n  combination: ctrl+alt+p\n"), 0640))
	cfg, err = NewLoader(yamlPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "ctrl+alt+p", cfg.Hotkey.Combination)
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.toml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Hotkey.Combination, cfg.Hotkey.Combination)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLASSMARK_HOTKEY", "ctrl+shift+z")
	t.Setenv("GLASSMARK_LOG_LEVEL", "debug")
	t.Setenv("GLASSMARK_STATS_ENABLED", "false")

	cfg, err := NewLoader(filepath.Join(t.TempDir(), "config.toml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+z", cfg.Hotkey.Combination)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Stats.Enabled)
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, loader, err := LoadOrCreate(path)
	require.NoError(t, err)
	defer loader.Close()

	assert.FileExists(t, path)
	assert.NoError(t, cfg.Validate())
}

func TestLoaderConfigReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	defer loader.Close()

	got := loader.Config()
	got.Hotkey.Combination = "ctrl+shift+q"

	assert.Equal(t, DefaultConfig().Hotkey.Combination,
		loader.Config().Hotkey.Combination)
}

func TestWatchReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	defer loader.Close()

	changed := make(chan *Config, 1)
	loader.OnChange(func(cfg *Config) { changed <- cfg })
	require.NoError(t, loader.Watch())

	next := DefaultConfig()
	next.Hotkey.Combination = "ctrl+alt+x"
	require.NoError(t, SaveConfig(next, path))

	select {
	case cfg := <-changed:
		assert.Equal(t, "ctrl+alt+x", cfg.Hotkey.Combination)
	case <-time.After(3 * time.Second):
		t.Fatal("config change was never observed")
	}
}

func TestWatchKeepsPreviousOnInvalidEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	defer loader.Close()

	changed := make(chan *Config, 1)
	loader.OnChange(func(cfg *Config) { changed <- cfg })
	require.NoError(t, loader.Watch())

	// A combination with no modifier must be rejected on reload.
	bad := DefaultConfig()
	bad.Hotkey.Combination = "a+b"
	require.NoError(t, SaveConfig(bad, path))

	select {
	case err := <-loader.Errors():
		assert.Error(t, err)
	case cfg := <-changed:
		t.Fatalf("invalid config was applied: %+v", cfg.Hotkey)
	case <-time.After(3 * time.Second):
		t.Fatal("invalid edit produced neither error nor change")
	}

	assert.Equal(t, DefaultConfig().Hotkey.Combination,
		loader.Config().Hotkey.Combination)
}
