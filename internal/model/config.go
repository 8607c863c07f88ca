package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// FeedConfig controls the live feed subscriptions.
type FeedConfig struct {
	// RefreshIntervalSec is the fallback re-query interval for each
	// subscription source. Change signals from the store trigger
	// immediate re-queries; the ticker covers external writers and
	// error retry.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// MailwatchConfig configures the IMAP invitation-mail ingest.
// The mailbox password is stored in the system keyring, not here.
type MailwatchConfig struct {
	// Enabled controls whether the mail watcher runs at all.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host and Port locate the IMAP server.
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`

	// Username is the IMAP login (usually the account email).
	Username string `mapstructure:"username" yaml:"username"`

	// TLS selects implicit TLS; otherwise STARTTLS is used.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// PollIntervalSec is how often (in seconds) to check the mailbox.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DatabasePath is the SQLite file location. Empty means the default
	// next to the config file.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	Feed      FeedConfig      `mapstructure:"feed" yaml:"feed"`
	Mailwatch MailwatchConfig `mapstructure:"mailwatch" yaml:"mailwatch"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/teamdeck/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "teamdeck", "config.yaml")
}

// DefaultDatabasePath returns the default SQLite database location,
// next to the configuration file.
func DefaultDatabasePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "teamdeck.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Feed: FeedConfig{
			RefreshIntervalSec: 60,
		},
		Mailwatch: MailwatchConfig{
			Enabled:         false,
			PollIntervalSec: 300,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("feed.refresh_interval_sec", 60)
	v.SetDefault("mailwatch.poll_interval_sec", 300)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Feed.RefreshIntervalSec <= 0 {
		cfg.Feed.RefreshIntervalSec = 60
	}
	if cfg.Mailwatch.PollIntervalSec <= 0 {
		cfg.Mailwatch.PollIntervalSec = 300
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database_path", cfg.DatabasePath)
	v.Set("feed", cfg.Feed)
	v.Set("mailwatch", cfg.Mailwatch)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
