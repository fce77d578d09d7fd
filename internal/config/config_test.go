//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde expands to home", "~/logs/shelf.log", filepath.Join(home, "logs", "shelf.log")},
		{"absolute path unchanged", "/var/log/shelf.log", "/var/log/shelf.log"},
		{"relative path unchanged", "logs/shelf.log", "logs/shelf.log"},
		{"empty string unchanged", "", ""},
		{"tilde only", "~", home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadFrom_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "a.toml", `
[server]
url = "https://first.example.com/"
token = "tok-a"

[playback]
sync_interval = "20s"
`)
	second := writeConfig(t, dir, "b.toml", `
[server]
url = "https://second.example.com"
`)

	cfg, err := LoadFrom(first, second, filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.URL != "https://second.example.com" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.Token != "tok-a" {
		t.Errorf("Server.Token = %q, want value kept from first file", cfg.Server.Token)
	}
	if got := cfg.GetPlaybackConfig().SyncInterval; got != 20*time.Second {
		t.Errorf("SyncInterval = %v, want 20s", got)
	}
}

func TestLoadFrom_TrimsTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "c.toml", "[server]\nurl = \"http://abs.local:13378/\"\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.URL != "http://abs.local:13378" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bad.toml", "[server\nurl = ")

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid toml")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "c.toml", `
[server]
url = "https://file.example.com"
token = "from-file"

[log]
level = "warn"
`)
	t.Setenv("SHELF_TOKEN", "from-env")
	t.Setenv("SHELF_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Token != "from-env" {
		t.Errorf("Server.Token = %q, want from-env", cfg.Server.Token)
	}
	if cfg.Server.URL != "https://file.example.com" {
		t.Errorf("Server.URL = %q, unset env must not override", cfg.Server.URL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

type envTestConfig struct {
	Port int `env:"SHELF_TEST_PORT" envDefault:"123"`
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("SHELF_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		input PlaybackConfig
		want  PlaybackConfig
	}{
		{
			name:  "zero values get defaults",
			input: PlaybackConfig{},
			want:  PlaybackConfig{ProgressInterval: time.Second, SyncInterval: 15 * time.Second, Volume: 100, SkipSeconds: 30},
		},
		{
			name:  "explicit values kept",
			input: PlaybackConfig{ProgressInterval: 2 * time.Second, SyncInterval: time.Minute, Volume: 40, SkipSeconds: 10},
			want:  PlaybackConfig{ProgressInterval: 2 * time.Second, SyncInterval: time.Minute, Volume: 40, SkipSeconds: 10},
		},
		{
			name:  "volume out of range",
			input: PlaybackConfig{Volume: 150},
			want:  PlaybackConfig{ProgressInterval: time.Second, SyncInterval: 15 * time.Second, Volume: 100, SkipSeconds: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Playback: tt.input}
			if got := c.GetPlaybackConfig(); got != tt.want {
				t.Errorf("GetPlaybackConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGetBufferConfig_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		input       BufferConfig
		wantStarved int
		wantFull    int
	}{
		{"defaults", BufferConfig{}, 100, 100},
		{"hysteresis kept", BufferConfig{StarvedPercent: 20, FullPercent: 80}, 20, 80},
		{"starved above full is clamped", BufferConfig{StarvedPercent: 90, FullPercent: 50}, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Buffer: tt.input}
			got := c.GetBufferConfig()
			if got.StarvedPercent != tt.wantStarved || got.FullPercent != tt.wantFull {
				t.Errorf("got starved=%d full=%d, want %d/%d",
					got.StarvedPercent, got.FullPercent, tt.wantStarved, tt.wantFull)
			}
			if got.Prebuffer != 2*time.Second || got.Ahead != 10*time.Second {
				t.Errorf("Prebuffer = %v, Ahead = %v", got.Prebuffer, got.Ahead)
			}
		})
	}
}

func TestGetRequestTimeout(t *testing.T) {
	c := &Config{}
	if got := c.GetRequestTimeout(); got != 30*time.Second {
		t.Errorf("default timeout = %v", got)
	}
	c.Server.RequestTimeout = 5 * time.Second
	if got := c.GetRequestTimeout(); got != 5*time.Second {
		t.Errorf("timeout = %v", got)
	}
}

func TestHasLastfmConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  LastfmConfig
		want bool
	}{
		{"both set", LastfmConfig{APIKey: "k", APISecret: "s"}, true},
		{"key only", LastfmConfig{APIKey: "k"}, false},
		{"none", LastfmConfig{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Lastfm: tt.cfg}
			if got := c.HasLastfmConfig(); got != tt.want {
				t.Errorf("HasLastfmConfig() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotificationsEnabled(t *testing.T) {
	off := false
	if !(&Config{}).NotificationsEnabled() {
		t.Error("notifications should default to enabled")
	}
	if (&Config{Notifications: NotificationsConfig{Enabled: &off}}).NotificationsEnabled() {
		t.Error("explicit false should disable notifications")
	}
}
