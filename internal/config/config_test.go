package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("expected default address, got %s", cfg.Server.Address())
	}
	if cfg.Wizard.Creator != CreatorSimulated {
		t.Errorf("expected simulated creator, got %s", cfg.Wizard.Creator)
	}
	if cfg.Wizard.SubmitDelay != 2*time.Second {
		t.Errorf("expected 2s submit delay, got %s", cfg.Wizard.SubmitDelay)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis to be disabled by default")
	}
	if cfg.Catalog.Dir != "./catalog" {
		t.Errorf("expected ./catalog, got %s", cfg.Catalog.Dir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WIZARD_CREATOR", "postgres")
	t.Setenv("WIZARD_SUBMIT_DELAY", "500ms")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CLEANUP_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Wizard.Creator != CreatorPostgres {
		t.Errorf("expected postgres creator, got %s", cfg.Wizard.Creator)
	}
	if cfg.Wizard.SubmitDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", cfg.Wizard.SubmitDelay)
	}
	if !cfg.Redis.Enabled {
		t.Error("expected redis to be enabled")
	}
	// Unparsable values fall back to the default
	if cfg.Cleanup.Interval != 5*time.Minute {
		t.Errorf("expected default interval, got %s", cfg.Cleanup.Interval)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	env := "CATALOG_DIR=/srv/catalog\nWIZARD_IDLE_TTL=2h\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	// The process environment wins over .env
	t.Setenv("WIZARD_IDLE_TTL", "3h")
	// Registered for restore, then left unset so the .env value applies
	t.Setenv("CATALOG_DIR", "")
	os.Unsetenv("CATALOG_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Catalog.Dir != "/srv/catalog" {
		t.Errorf("expected catalog dir from .env, got %s", cfg.Catalog.Dir)
	}
	if cfg.Wizard.IdleTTL != 3*time.Hour {
		t.Errorf("expected process env to win, got %s", cfg.Wizard.IdleTTL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{DSN: "postgres://localhost/db"},
			Wizard:   WizardConfig{Creator: CreatorSimulated, SubmitDelay: time.Second, IdleTTL: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"unknown creator", func(c *Config) { c.Wizard.Creator = "kafka" }, "unknown wizard creator"},
		{"postgres without dsn", func(c *Config) {
			c.Wizard.Creator = CreatorPostgres
			c.Database.DSN = ""
		}, "database DSN is required"},
		{"simulated without dsn", func(c *Config) { c.Database.DSN = "" }, ""},
		{"negative delay", func(c *Config) { c.Wizard.SubmitDelay = -time.Second }, "submit delay"},
		{"zero ttl", func(c *Config) { c.Wizard.IdleTTL = 0 }, "idle TTL"},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true }, "redis address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
