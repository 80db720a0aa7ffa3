package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
tenant:
  id: 6f1c7c56-0000-0000-0000-000000000001
engine:
  query_timeout: 2s
  concurrency: 4
  recent_window: 12h
logging:
  level: debug
  max_backups: 7
demo:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tenant.ID != "6f1c7c56-0000-0000-0000-000000000001" {
		t.Errorf("expected tenant id from file, got '%s'", cfg.Tenant.ID)
	}
	if cfg.Engine.QueryTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.Engine.QueryTimeout)
	}
	if cfg.Engine.RecentWindow != 12*time.Hour {
		t.Errorf("expected 12h, got %v", cfg.Engine.RecentWindow)
	}
	if cfg.Engine.MaxCandidates != 200 {
		t.Errorf("expected default max candidates, got %d", cfg.Engine.MaxCandidates)
	}
	if !cfg.Demo.Enabled {
		t.Error("expected demo mode")
	}
	lc := cfg.LoggerConfig(false)
	if lc.Level != "debug" || lc.MaxBackups != 7 || lc.MaxSizeMB != 10 {
		t.Errorf("unexpected logger config: %+v", lc)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "tenant:\n  id: from-file\n")
	t.Setenv("LAZYCRM_TENANT_ID", "from-env")
	t.Setenv("LAZYCRM_ENGINE_CONCURRENCY", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tenant.ID != "from-env" {
		t.Errorf("expected 'from-env', got '%s'", cfg.Tenant.ID)
	}
	if cfg.Engine.Concurrency != 3 {
		t.Errorf("expected 3, got %d", cfg.Engine.Concurrency)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_RejectsInvalidBounds(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_candidates: 5\n  candidate_warn_threshold: 10\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestGetDefaults(t *testing.T) {
	d := GetDefaults()
	if err := d.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
	if d.Engine.DefaultLimit != 50 {
		t.Errorf("expected default limit 50, got %d", d.Engine.DefaultLimit)
	}
	conn := d.Connection()
	if conn.Port != 5432 || conn.MaxConns != 10 {
		t.Errorf("unexpected connection defaults: %+v", conn)
	}
}
