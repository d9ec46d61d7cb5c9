package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Errorf("expected default server, got %s", cfg.Server)
	}
	if cfg.TimeoutSeconds != 30 || cfg.PollIntervalSeconds != 5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	content := `
server = "https://gw.example.net:8443"
api_key = "abc123"
poll_interval_seconds = 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server != "https://gw.example.net:8443" {
		t.Errorf("unexpected server: %s", cfg.Server)
	}
	if cfg.APIKey != "abc123" {
		t.Errorf("unexpected api key: %s", cfg.APIKey)
	}
	if cfg.PollIntervalSeconds != 10 {
		t.Errorf("unexpected poll interval: %d", cfg.PollIntervalSeconds)
	}
	// Unset values keep their defaults.
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("unexpected timeout: %d", cfg.TimeoutSeconds)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	if err := os.WriteFile(path, []byte(`server = "https://file.example.net"`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IPSECADM_SERVER", "https://env.example.net")
	t.Setenv("IPSECADM_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server != "https://env.example.net" {
		t.Errorf("environment must win over the file, got %s", cfg.Server)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("unexpected api key: %s", cfg.APIKey)
	}
}

func TestLoad_InvalidHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	if err := os.WriteFile(path, []byte(`server = `), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected decode error for invalid HCL")
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{TimeoutSeconds: 45, PollIntervalSeconds: 3}
	if cfg.Timeout() != 45*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.Timeout())
	}
	if cfg.PollInterval() != 3*time.Second {
		t.Errorf("unexpected poll interval: %s", cfg.PollInterval())
	}
}
