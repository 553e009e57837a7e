package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Path != "./face_data.json" {
		t.Errorf("unexpected store path %s", cfg.Store.Path)
	}
	if cfg.Match.Threshold != 0.9 {
		t.Errorf("unexpected threshold %v", cfg.Match.Threshold)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("unexpected port %d", cfg.Web.Port)
	}
	if cfg.Database.EmbeddingDim != 512 {
		t.Errorf("unexpected embedding dim %d", cfg.Database.EmbeddingDim)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FACEGATE_STORE_PATH", "/tmp/identities.json")
	t.Setenv("FACEGATE_THRESHOLD", "0.8")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("FACEGATE_API_TOKEN", "secret")
	t.Setenv("FACEGATE_AUDIT_LOG", "/tmp/audit.jsonl")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Path != "/tmp/identities.json" {
		t.Errorf("unexpected store path %s", cfg.Store.Path)
	}
	if cfg.Match.Threshold != 0.8 {
		t.Errorf("unexpected threshold %v", cfg.Match.Threshold)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("unexpected port %d", cfg.Web.Port)
	}
	if cfg.Web.APIToken != "secret" {
		t.Errorf("unexpected api token %s", cfg.Web.APIToken)
	}
	if cfg.Audit.LogPath != "/tmp/audit.jsonl" {
		t.Errorf("unexpected audit log path %s", cfg.Audit.LogPath)
	}
}

func TestLoad_InvalidEnvValuesFallBack(t *testing.T) {
	t.Setenv("FACEGATE_THRESHOLD", "not-a-number")
	t.Setenv("WEB_PORT", "-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Match.Threshold != 0.9 {
		t.Errorf("invalid threshold must fall back to default, got %v", cfg.Match.Threshold)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("invalid port must fall back to default, got %d", cfg.Web.Port)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facegate.yaml")
	content := `
store:
  path: /var/lib/facegate/identities.json
match:
  threshold: 0.85
web:
  port: 8888
audit:
  log_path: /var/log/facegate/audit.jsonl
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACEGATE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Path != "/var/lib/facegate/identities.json" {
		t.Errorf("unexpected store path %s", cfg.Store.Path)
	}
	if cfg.Match.Threshold != 0.85 {
		t.Errorf("unexpected threshold %v", cfg.Match.Threshold)
	}
	if cfg.Web.Port != 8888 {
		t.Errorf("unexpected port %d", cfg.Web.Port)
	}
	if cfg.Audit.LogPath != "/var/log/facegate/audit.jsonl" {
		t.Errorf("unexpected audit path %s", cfg.Audit.LogPath)
	}
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facegate.yaml")
	if err := os.WriteFile(path, []byte("match:\n  threshold: 0.85\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACEGATE_CONFIG", path)
	t.Setenv("FACEGATE_THRESHOLD", "0.95")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Match.Threshold != 0.95 {
		t.Errorf("env must override config file, got %v", cfg.Match.Threshold)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("FACEGATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected an error for an explicitly configured missing file")
	}
}
