// Package config loads and saves the rollview TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all rollview configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Cache      CacheConfig      `toml:"cache"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Serve      ServeConfig      `toml:"serve"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	SessionsDir  string `toml:"sessions_dir,omitempty"`
	DefaultLimit int    `toml:"default_limit"`
}

// CacheConfig controls the transcript cache and the sqlite session index.
type CacheConfig struct {
	Transcripts int  `toml:"transcripts"` // LRU capacity, in sessions
	Index       bool `toml:"index"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds interactive browser settings.
type TUIConfig struct {
	Wrap bool `toml:"wrap"`
}

// ServeConfig holds HTTP daemon settings.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultLimit: 20,
		},
		Cache: CacheConfig{
			Transcripts: 64,
			Index:       true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			Wrap: true,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8757",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rollview")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rollview")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path over the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes cfg to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-provided config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// SessionsDir returns the configured sessions directory, or fallback when
// none is set.
func (c Config) SessionsDir(fallback string) string {
	if c.General.SessionsDir != "" {
		return expandHome(c.General.SessionsDir)
	}
	return fallback
}

func expandHome(p string) string {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
