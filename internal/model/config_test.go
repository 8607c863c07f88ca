package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Feed.RefreshIntervalSec != 60 {
		t.Errorf("RefreshIntervalSec = %d, want 60", cfg.Feed.RefreshIntervalSec)
	}
	if cfg.Mailwatch.Enabled {
		t.Error("Mailwatch.Enabled = true by default, want false")
	}
	if cfg.Mailwatch.PollIntervalSec != 300 {
		t.Errorf("PollIntervalSec = %d, want 300", cfg.Mailwatch.PollIntervalSec)
	}
	if cfg.Display.Theme != "default" {
		t.Errorf("Theme = %q, want %q", cfg.Display.Theme, "default")
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
database_path: /tmp/teamdeck-test.db
feed:
  refresh_interval_sec: 15
mailwatch:
  enabled: true
  host: imap.example.com
  port: "993"
  username: you@example.com
  tls: true
  poll_interval_sec: 120
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.DatabasePath != "/tmp/teamdeck-test.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Feed.RefreshIntervalSec != 15 {
		t.Errorf("RefreshIntervalSec = %d, want 15", cfg.Feed.RefreshIntervalSec)
	}
	if !cfg.Mailwatch.Enabled || !cfg.Mailwatch.TLS {
		t.Error("mailwatch flags not parsed")
	}
	if cfg.Mailwatch.Host != "imap.example.com" || cfg.Mailwatch.Port != "993" {
		t.Errorf("mailwatch address = %s:%s", cfg.Mailwatch.Host, cfg.Mailwatch.Port)
	}
	if cfg.Mailwatch.PollIntervalSec != 120 {
		t.Errorf("PollIntervalSec = %d, want 120", cfg.Mailwatch.PollIntervalSec)
	}
}

func TestLoadConfigClampsNonPositiveIntervals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
feed:
  refresh_interval_sec: -5
mailwatch:
  poll_interval_sec: 0
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Feed.RefreshIntervalSec != 60 {
		t.Errorf("RefreshIntervalSec = %d, want clamped 60", cfg.Feed.RefreshIntervalSec)
	}
	if cfg.Mailwatch.PollIntervalSec != 300 {
		t.Errorf("PollIntervalSec = %d, want clamped 300", cfg.Mailwatch.PollIntervalSec)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := defaultAppConfig()
	want.DatabasePath = "/tmp/teamdeck-roundtrip.db"
	want.Feed.RefreshIntervalSec = 30
	want.Mailwatch.Enabled = true
	want.Mailwatch.Host = "imap.example.com"

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.DatabasePath != want.DatabasePath {
		t.Errorf("DatabasePath = %q, want %q", got.DatabasePath, want.DatabasePath)
	}
	if got.Feed.RefreshIntervalSec != 30 {
		t.Errorf("RefreshIntervalSec = %d, want 30", got.Feed.RefreshIntervalSec)
	}
	if !got.Mailwatch.Enabled || got.Mailwatch.Host != "imap.example.com" {
		t.Errorf("mailwatch = %+v, want enabled with host", got.Mailwatch)
	}
}
