// Package config loads the client configuration (HCL) that points the CLI
// at a management backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// DefaultServer is used when no server is configured anywhere.
const DefaultServer = "http://127.0.0.1:8000"

// Config is the client configuration file.
type Config struct {
	// Server is the base URL of the host application, e.g.
	// "https://gw.example.net:8443".
	Server string `hcl:"server,optional"`
	// APIKey authenticates requests; empty disables the header.
	APIKey string `hcl:"api_key,optional"`
	// BasePath overrides the module mount point.
	BasePath string `hcl:"base_path,optional"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `hcl:"timeout_seconds,optional"`
	// PollIntervalSeconds is the status poll period of watch views.
	PollIntervalSeconds int `hcl:"poll_interval_seconds,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:              DefaultServer,
		TimeoutSeconds:      30,
		PollIntervalSeconds: 5,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ipsecadm", "config.hcl")
	}
	return "ipsecadm.hcl"
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Environment variables IPSECADM_SERVER and
// IPSECADM_API_KEY override the file either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is fine; env and defaults carry it.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		var fileCfg Config
		if err := hclsimple.Decode(path, data, nil, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
		cfg.merge(&fileCfg)
	}

	if v := os.Getenv("IPSECADM_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("IPSECADM_API_KEY"); v != "" {
		cfg.APIKey = v
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 5
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Server != "" {
		c.Server = o.Server
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.BasePath != "" {
		c.BasePath = o.BasePath
	}
	if o.TimeoutSeconds > 0 {
		c.TimeoutSeconds = o.TimeoutSeconds
	}
	if o.PollIntervalSeconds > 0 {
		c.PollIntervalSeconds = o.PollIntervalSeconds
	}
}

// Timeout returns the HTTP timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval returns the poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
