package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goCheckin "github.com/MrEthical07/goCheckin"
	"github.com/spf13/viper"
)

type simConfig struct {
	API     apiSettings     `mapstructure:"api"`
	Store   storeSettings   `mapstructure:"store"`
	Scan    scanSettings    `mapstructure:"scan"`
	Camera  cameraSettings  `mapstructure:"camera"`
	Log     logSettings     `mapstructure:"log"`
	Metrics metricsSettings `mapstructure:"metrics"`
}

type apiSettings struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LoginTimeout  time.Duration `mapstructure:"login_timeout"`
	VerifyTimeout time.Duration `mapstructure:"verify_timeout"`
}

type storeSettings struct {
	Backend   string        `mapstructure:"backend"`
	Dir       string        `mapstructure:"dir"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type scanSettings struct {
	Hosts      []string `mapstructure:"hosts"`
	PathPrefix string   `mapstructure:"path_prefix"`
	Pattern    string   `mapstructure:"pattern"`
}

type cameraSettings struct {
	Deny bool `mapstructure:"deny"`
}

type logSettings struct {
	Env       string `mapstructure:"env"`
	Audit     bool   `mapstructure:"audit"`
	AuditFile string `mapstructure:"audit_file"`
}

type metricsSettings struct {
	Addr string `mapstructure:"addr"`
}

var configKeys = []string{
	"api.base_url",
	"api.timeout",
	"api.login_timeout",
	"api.verify_timeout",
	"store.backend",
	"store.dir",
	"store.redis_addr",
	"store.redis_ttl",
	"store.key_prefix",
	"scan.hosts",
	"scan.path_prefix",
	"scan.pattern",
	"camera.deny",
	"log.env",
	"log.audit",
	"log.audit_file",
	"metrics.addr",
}

// loadConfig layers defaults, an optional config file, CHECKIN_* environment variables
// and finally overrides (explicitly set flags), later layers winning.
func loadConfig(file string, overrides map[string]any) (*simConfig, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CHECKIN")

	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	for _, key := range configKeys {
		envKey := "CHECKIN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg simConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := goCheckin.DefaultConfig()

	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.login_timeout", def.Auth.LoginTimeout.String())
	v.SetDefault("api.verify_timeout", def.Scan.VerifyTimeout.String())

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", ".checkin")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_ttl", "0s")
	v.SetDefault("store.key_prefix", def.Session.KeyPrefix)

	v.SetDefault("scan.hosts", def.Scan.Hosts)
	v.SetDefault("scan.path_prefix", def.Scan.PathPrefix)
	v.SetDefault("scan.pattern", "")

	v.SetDefault("camera.deny", false)

	v.SetDefault("log.env", "development")
	v.SetDefault("log.audit", false)
	v.SetDefault("log.audit_file", "")

	v.SetDefault("metrics.addr", "")
}

func (c *simConfig) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	switch c.Store.Backend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("store.backend %q must be file, redis or memory", c.Store.Backend)
	}
	if c.Store.Backend == "file" && strings.TrimSpace(c.Store.Dir) == "" {
		return errors.New("store.dir is required for the file backend")
	}
	return nil
}

// engineConfig maps the CLI settings onto the engine configuration.
func (c *simConfig) engineConfig() goCheckin.Config {
	cfg := goCheckin.DefaultConfig()
	cfg.Session.KeyPrefix = c.Store.KeyPrefix
	if c.API.LoginTimeout > 0 {
		cfg.Auth.LoginTimeout = c.API.LoginTimeout
	}
	if c.API.VerifyTimeout > 0 {
		cfg.Scan.VerifyTimeout = c.API.VerifyTimeout
	}
	if len(c.Scan.Hosts) > 0 {
		cfg.Scan.Hosts = append([]string(nil), c.Scan.Hosts...)
	}
	if c.Scan.PathPrefix != "" {
		cfg.Scan.PathPrefix = c.Scan.PathPrefix
	}
	cfg.Scan.Pattern = c.Scan.Pattern
	cfg.Audit.Enabled = c.Log.Audit || c.Log.AuditFile != ""
	cfg.Metrics.Enabled = c.Metrics.Addr != ""
	cfg.Metrics.EnableLatencyHistograms = cfg.Metrics.Enabled
	return cfg
}
