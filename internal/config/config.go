// Package config handles configuration loading, validation, and
// hot-reloading for glassmark.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"

	"glassmark/internal/hotkey"
	"glassmark/internal/tools"
)

// Config is the complete application configuration.
type Config struct {
	// Hotkey is the activation combination, e.g. "ctrl+alt+d".
	Hotkey HotkeyConfig `toml:"hotkey" json:"hotkey" yaml:"hotkey"`

	// Drawing holds the brush defaults.
	Drawing DrawingConfig `toml:"drawing" json:"drawing" yaml:"drawing"`

	// Logging configures the structured logger.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Stats configures local usage statistics.
	Stats StatsConfig `toml:"stats" json:"stats" yaml:"stats"`
}

// HotkeyConfig configures activation behavior.
type HotkeyConfig struct {
	// Combination is the activation hotkey in "mod+mod+key" form.
	Combination string `toml:"combination" json:"combination" yaml:"combination"`

	// ToggleMode keeps drawing mode on until the hotkey fires again
	// instead of holding it only while the combination is pressed.
	ToggleMode bool `toml:"toggle_mode" json:"toggle_mode" yaml:"toggle_mode"`
}

// DrawingConfig holds brush defaults.
type DrawingConfig struct {
	Tool      string  `toml:"tool" json:"tool" yaml:"tool"`
	Color     string  `toml:"color" json:"color" yaml:"color"`
	Thickness float64 `toml:"thickness" json:"thickness" yaml:"thickness"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level    string `toml:"level" json:"level" yaml:"level"`
	Format   string `toml:"format" json:"format" yaml:"format"`
	Output   string `toml:"output" json:"output" yaml:"output"`
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// StatsConfig configures local usage statistics.
type StatsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Combination: hotkey.DefaultCombination().String(),
			ToggleMode:  true,
		},
		Drawing: DrawingConfig{
			Tool:      tools.Pen.String(),
			Color:     "#FF3B30",
			Thickness: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "both",
		},
		Stats: StatsConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the platform default config file location.
func ConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		return filepath.Join(appData, "glassmark", "config.toml")
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", "glassmark", "config.toml")
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			homeDir, _ := os.UserHomeDir()
			configHome = filepath.Join(homeDir, ".config")
		}
		return filepath.Join(configHome, "glassmark", "config.toml")
	}
}

// Validate checks the configuration, returning the first problem
// found.
func (c *Config) Validate() error {
	if _, err := c.Combination(); err != nil {
		return fmt.Errorf("hotkey.combination: %w", err)
	}
	if _, err := tools.Parse(c.Drawing.Tool); err != nil {
		return fmt.Errorf("drawing.tool: %w", err)
	}
	if c.Drawing.Thickness <= 0 || c.Drawing.Thickness > 50 {
		return fmt.Errorf("drawing.thickness: %v out of range (0, 50]", c.Drawing.Thickness)
	}
	return nil
}

// Combination parses and validates the configured hotkey. Reserved
// combinations pass: the user may have overridden the recorder's
// warning deliberately.
func (c *Config) Combination() (hotkey.Combination, error) {
	return hotkey.ParseCombination(c.Hotkey.Combination)
}

// Tool returns the configured startup tool.
func (c *Config) Tool() tools.Kind {
	k, err := tools.Parse(c.Drawing.Tool)
	if err != nil {
		return tools.Pen
	}
	return k
}

// ApplyEnvOverrides overrides selected settings from GLASSMARK_*
// environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GLASSMARK_HOTKEY"); v != "" {
		c.Hotkey.Combination = v
	}
	if v := os.Getenv("GLASSMARK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GLASSMARK_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
	if v := os.Getenv("GLASSMARK_STATS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Stats.Enabled = b
		}
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// SaveConfig writes the configuration as TOML, creating parent
// directories as needed. Used by the recorder to persist a newly
// captured combination.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# glassmark configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0640); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
