package goCheckin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Config holds all engine settings. It is copied at Build and treated as immutable.
type Config struct {
	Session SessionConfig
	Auth    AuthConfig
	Scan    ScanConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls where the persisted session record lives.
type SessionConfig struct {
	KeyPrefix string
	KeyName   string
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig controls the login call.
type AuthConfig struct {
	LoginTimeout  time.Duration
	ValidateEmail bool
}

/*
====================================
SCAN CONFIG
====================================
*/

// ScanConfig controls payload validation and the verification call.
//
// When Pattern is set it replaces the Hosts/PathPrefix rule and must contain exactly one
// capture group matching the ticket identifier.
type ScanConfig struct {
	Hosts             []string
	PathPrefix        string
	Pattern           string
	VerifyTimeout     time.Duration
	PermissionTimeout time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when [Builder.WithConfig] is not called.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			KeyPrefix: "checkin",
			KeyName:   "auth",
		},
		Auth: AuthConfig{
			LoginTimeout:  15 * time.Second,
			ValidateEmail: true,
		},
		Scan: ScanConfig{
			Hosts:             []string{"eventregs.example.org"},
			PathPrefix:        "/scan/",
			VerifyTimeout:     10 * time.Second,
			PermissionTimeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Scan.Hosts != nil {
		out.Scan.Hosts = append([]string(nil), cfg.Scan.Hosts...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if strings.TrimSpace(c.Session.KeyName) == "" {
		return errors.New("Session KeyName must not be empty")
	}

	// Auth
	if c.Auth.LoginTimeout <= 0 {
		return errors.New("Auth LoginTimeout must be > 0")
	}

	// Scan
	if c.Scan.VerifyTimeout <= 0 {
		return errors.New("Scan VerifyTimeout must be > 0")
	}
	if c.Scan.PermissionTimeout <= 0 {
		return errors.New("Scan PermissionTimeout must be > 0")
	}
	if c.Scan.Pattern != "" {
		re, err := regexp.Compile(c.Scan.Pattern)
		if err != nil {
			return fmt.Errorf("Scan Pattern invalid: %w", err)
		}
		if re.NumSubexp() != 1 {
			return errors.New("Scan Pattern must have exactly one capture group")
		}
	} else {
		if len(c.Scan.Hosts) == 0 {
			return errors.New("Scan Hosts must not be empty when Pattern is unset")
		}
		for _, h := range c.Scan.Hosts {
			if h == "" || strings.ContainsAny(h, "/:?# ") {
				return fmt.Errorf("Scan Hosts entry %q is not a bare host name", h)
			}
		}
		if !strings.HasPrefix(c.Scan.PathPrefix, "/") || !strings.HasSuffix(c.Scan.PathPrefix, "/") {
			return errors.New("Scan PathPrefix must start and end with /")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
