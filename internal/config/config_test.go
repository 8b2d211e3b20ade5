package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/signalpro/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090

refresh:
  interval: 500ms
  floor: 55

archive:
  type: localfs
  path: "/tmp/signalpro/archive"
  schedule: "@every 1h"
  retain: 48

alerts:
  cooldown: 10m
  rules:
    - name: low_confidence
      expr: "min_confidence < 62"
      for: 30s
      severity: warning
      message: "a signal is close to the floor"
  webhook:
    url: "http://localhost:9999/hook"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Refresh.Interval != 500*time.Millisecond {
		t.Errorf("expected 500ms interval, got %s", cfg.Refresh.Interval)
	}
	if cfg.Refresh.Floor != 55 {
		t.Errorf("expected floor 55, got %g", cfg.Refresh.Floor)
	}
	// Not in the file, so the default survives.
	if cfg.Refresh.Ceiling != 100 {
		t.Errorf("expected default ceiling 100, got %g", cfg.Refresh.Ceiling)
	}
	if cfg.Chart.Points != 20 {
		t.Errorf("expected default 20 chart points, got %d", cfg.Chart.Points)
	}
	if cfg.Archive.Schedule != "@every 1h" {
		t.Errorf("unexpected schedule %q", cfg.Archive.Schedule)
	}
	if cfg.Archive.Retain != 48 {
		t.Errorf("expected retain 48, got %d", cfg.Archive.Retain)
	}
	if cfg.Alerts.Cooldown != 10*time.Minute {
		t.Errorf("expected 10m cooldown, got %s", cfg.Alerts.Cooldown)
	}
	if len(cfg.Alerts.Rules) != 1 || cfg.Alerts.Rules[0].For != 30*time.Second {
		t.Errorf("unexpected alert rules %+v", cfg.Alerts.Rules)
	}
	if cfg.Alerts.Webhook.URL != "http://localhost:9999/hook" {
		t.Errorf("unexpected webhook url %q", cfg.Alerts.Webhook.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SIGNALPRO_TEST_KEY", "secret")
	content := []byte(`
server:
  api_key: "${SIGNALPRO_TEST_KEY}"
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("expected expanded api key, got %q", cfg.Server.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Refresh.Interval != 3*time.Second {
		t.Errorf("expected default interval 3s, got %s", cfg.Refresh.Interval)
	}
	if cfg.Refresh.Floor != 60 || cfg.Refresh.Ceiling != 100 {
		t.Errorf("expected default bounds [60,100], got [%g,%g]", cfg.Refresh.Floor, cfg.Refresh.Ceiling)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr *core.Error
	}{
		{"valid config", func(*Config) {}, nil},
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"zero interval", func(c *Config) { c.Refresh.Interval = 0 }, core.ErrConfigInvalid},
		{"floor above ceiling", func(c *Config) { c.Refresh.Floor = 100; c.Refresh.Ceiling = 90 }, core.ErrConfigInvalid},
		{"ceiling above 100", func(c *Config) { c.Refresh.Ceiling = 120 }, core.ErrConfigInvalid},
		{"floor zero allowed", func(c *Config) { c.Refresh.Floor = 0 }, nil},
		{"negative amplitude", func(c *Config) { c.Refresh.Amplitude = -1 }, core.ErrConfigInvalid},
		{"too few chart points", func(c *Config) { c.Chart.Points = 1 }, core.ErrConfigInvalid},
		{"unknown archive", func(c *Config) { c.Archive.Type = "ftp" }, core.ErrConfigInvalid},
		{"s3 without bucket", func(c *Config) { c.Archive.Type = "s3" }, core.ErrConfigMissing},
		{"bad schedule", func(c *Config) { c.Archive.Schedule = "every tuesday" }, core.ErrConfigInvalid},
		{"cron schedule", func(c *Config) { c.Archive.Schedule = "0 * * * *" }, nil},
		{"negative retain", func(c *Config) { c.Archive.Retain = -1 }, core.ErrConfigInvalid},
		{"negative cooldown", func(c *Config) { c.Alerts.Cooldown = -time.Second }, core.ErrConfigInvalid},
		{"rule without expr", func(c *Config) { c.Alerts.Rules = []AlertRuleConfig{{Name: "low"}} }, core.ErrConfigMissing},
		{"duplicate rule", func(c *Config) {
			c.Alerts.Rules = []AlertRuleConfig{{Name: "low", Expr: "min_confidence < 62"}, {Name: "low", Expr: "win_rate < 50"}}
		}, core.ErrConfigInvalid},
		{"valid rule", func(c *Config) { c.Alerts.Rules = []AlertRuleConfig{{Name: "low", Expr: "min_confidence < 62"}} }, nil},
		{"telegram without chat", func(c *Config) { c.Alerts.Telegram.BotToken = "t" }, core.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %s", err, tt.wantErr.Code)
			}
		})
	}
}
