package goCheckin

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "empty key name",
			mutate:    func(c *Config) { c.Session.KeyName = " " },
			wantValid: false,
		},
		{
			name:      "empty key prefix allowed",
			mutate:    func(c *Config) { c.Session.KeyPrefix = "" },
			wantValid: true,
		},
		{
			name:      "zero login timeout",
			mutate:    func(c *Config) { c.Auth.LoginTimeout = 0 },
			wantValid: false,
		},
		{
			name:      "negative verify timeout",
			mutate:    func(c *Config) { c.Scan.VerifyTimeout = -time.Second },
			wantValid: false,
		},
		{
			name:      "zero permission timeout",
			mutate:    func(c *Config) { c.Scan.PermissionTimeout = 0 },
			wantValid: false,
		},
		{
			name:      "no hosts",
			mutate:    func(c *Config) { c.Scan.Hosts = nil },
			wantValid: false,
		},
		{
			name:      "host with scheme",
			mutate:    func(c *Config) { c.Scan.Hosts = []string{"https://eventregs.example.org"} },
			wantValid: false,
		},
		{
			name:      "path prefix without trailing slash",
			mutate:    func(c *Config) { c.Scan.PathPrefix = "/scan" },
			wantValid: false,
		},
		{
			name: "pattern replaces hosts",
			mutate: func(c *Config) {
				c.Scan.Hosts = nil
				c.Scan.Pattern = `^T-([0-9]+)$`
			},
			wantValid: true,
		},
		{
			name:      "pattern without group",
			mutate:    func(c *Config) { c.Scan.Pattern = `^T-[0-9]+$` },
			wantValid: false,
		},
		{
			name:      "pattern with two groups",
			mutate:    func(c *Config) { c.Scan.Pattern = `^(T)-([0-9]+)$` },
			wantValid: false,
		},
		{
			name:      "pattern does not compile",
			mutate:    func(c *Config) { c.Scan.Pattern = `^T-([0-9]+$` },
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name:      "histograms without metrics",
			mutate:    func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigCopiesHosts(t *testing.T) {
	cfg := DefaultConfig()
	clone := cloneConfig(cfg)
	clone.Scan.Hosts[0] = "changed.example.org"

	if cfg.Scan.Hosts[0] == "changed.example.org" {
		t.Fatal("clone shares the Hosts slice")
	}
}
