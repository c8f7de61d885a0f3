package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if Exists() {
		t.Error("Exists() = true with no file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.SessionsDir = "/data/codex"
	cfg.Cache.Transcripts = 8
	cfg.Appearance.Theme = "tokyo-night"
	cfg.TUI.Wrap = false

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[serve]\naddr = \":9000\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("Serve.Addr = %q, want :9000", cfg.Serve.Addr)
	}
	if cfg.General.DefaultLimit != 20 {
		t.Errorf("DefaultLimit = %d, want 20", cfg.General.DefaultLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSessionsDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		set  string
		want string
	}{
		{"unset", "", "/fallback"},
		{"absolute", "/srv/sessions", "/srv/sessions"},
		{"home", "~/logs", filepath.Join(home, "logs")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.General.SessionsDir = tt.set
			if got := cfg.SessionsDir("/fallback"); got != tt.want {
				t.Errorf("SessionsDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
