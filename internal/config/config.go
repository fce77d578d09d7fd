package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "shelf"

type Config struct {
	// Audiobookshelf server connection
	Server ServerConfig `koanf:"server"`

	// Session timers and transport
	Playback PlaybackConfig `koanf:"playback"`

	// Buffering governor thresholds
	Buffer BufferConfig `koanf:"buffer"`

	Log LogConfig `koanf:"log"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	Notifications NotificationsConfig `koanf:"notifications"`
}

// ServerConfig holds the Audiobookshelf connection settings.
type ServerConfig struct {
	URL            string        `koanf:"url"`      // e.g., "https://abs.example.com"
	Token          string        `koanf:"token"`    // API token (see `shelf login`)
	Username       string        `koanf:"username"` // used by `shelf login` when no flag is given
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// PlaybackConfig holds session timer and transport settings.
type PlaybackConfig struct {
	ProgressInterval time.Duration `koanf:"progress_interval"` // default: 1s
	SyncInterval     time.Duration `koanf:"sync_interval"`     // default: 15s
	Volume           int           `koanf:"volume"`            // percent, 0-100 (default: 100)
	SkipSeconds      int           `koanf:"skip_seconds"`      // arrow key jump (default: 30)
}

// BufferConfig holds the streaming buffer settings.
type BufferConfig struct {
	StarvedPercent int           `koanf:"starved_percent"` // pause below this level (default: 100)
	FullPercent    int           `koanf:"full_percent"`    // resume at this level (default: 100)
	Prebuffer      time.Duration `koanf:"prebuffer"`       // decoded audio that counts as 100% (default: 2s)
	Ahead          time.Duration `koanf:"ahead"`           // decode-ahead capacity (default: 10s)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // "debug", "info", "warn", "error" (default: "info")
	File  string `koanf:"file"`  // default: $XDG_STATE_HOME/shelf/shelf.log
	JSON  bool   `koanf:"json"`
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// envOverrides are applied on top of the config files.
type envOverrides struct {
	ServerURL       string `env:"SHELF_SERVER_URL"`
	Token           string `env:"SHELF_TOKEN"`
	Username        string `env:"SHELF_USERNAME"`
	LogLevel        string `env:"SHELF_LOG_LEVEL"`
	LogFile         string `env:"SHELF_LOG_FILE"`
	LastfmAPIKey    string `env:"SHELF_LASTFM_API_KEY"`
	LastfmAPISecret string `env:"SHELF_LASTFM_API_SECRET"`
}

// Load reads the config files in priority order, then the environment.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given config files (last wins), then the environment.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	var ov envOverrides
	if err := ParseEnv(&ov); err != nil {
		return nil, err
	}
	cfg.applyEnv(ov)

	// Normalize server URL (remove trailing slash)
	cfg.Server.URL = strings.TrimSuffix(cfg.Server.URL, "/")

	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(ov envOverrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Server.URL, ov.ServerURL)
	set(&c.Server.Token, ov.Token)
	set(&c.Server.Username, ov.Username)
	set(&c.Log.Level, ov.LogLevel)
	set(&c.Log.File, ov.LogFile)
	set(&c.Lastfm.APIKey, ov.LastfmAPIKey)
	set(&c.Lastfm.APISecret, ov.LastfmAPISecret)
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/shelf/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasServer returns true if a server URL is configured.
func (c *Config) HasServer() bool {
	return c.Server.URL != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// NotificationsEnabled reports whether desktop notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// GetRequestTimeout returns the per-request timeout (default: 30s).
func (c *Config) GetRequestTimeout() time.Duration {
	if c.Server.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return c.Server.RequestTimeout
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = time.Second
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 15 * time.Second
	}
	if cfg.Volume <= 0 || cfg.Volume > 100 {
		cfg.Volume = 100
	}
	if cfg.SkipSeconds <= 0 {
		cfg.SkipSeconds = 30
	}

	return cfg
}

// GetBufferConfig returns the buffer configuration with defaults applied.
func (c *Config) GetBufferConfig() BufferConfig {
	cfg := c.Buffer

	if cfg.FullPercent <= 0 || cfg.FullPercent > 100 {
		cfg.FullPercent = 100
	}
	if cfg.StarvedPercent <= 0 || cfg.StarvedPercent > cfg.FullPercent {
		cfg.StarvedPercent = cfg.FullPercent
	}
	if cfg.Prebuffer <= 0 {
		cfg.Prebuffer = 2 * time.Second
	}
	if cfg.Ahead < cfg.Prebuffer {
		cfg.Ahead = max(10*time.Second, cfg.Prebuffer)
	}

	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log

	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.File == "" {
		cfg.File = filepath.Join(xdg.StateHome, appName, appName+".log")
	}

	return cfg
}
