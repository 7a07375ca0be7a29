package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/xarlytos/fitplanner/internal/planning"
	"github.com/xarlytos/fitplanner/pkg"

	"github.com/BurntSushi/toml"
)

const (
	defaultRequestTimeoutSeconds = 15
	defaultWindowSize            = 4
)

type Config struct {
	Environment string
	// backend service
	BackendURL            string `toml:"backend_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// 0 disables the in-memory plan cache
	PlanCacheTTLSeconds int `toml:"plan_cache_ttl_seconds"`
	// calendar
	WindowSize    int    `toml:"window_size"`
	SessionPolicy string `toml:"session_policy"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) PlanCacheTTL() time.Duration {
	return time.Duration(c.PlanCacheTTLSeconds) * time.Second
}

func (c *Config) Policy() planning.SessionPolicy {
	// validated on load
	policy, _ := planning.ParseSessionPolicy(c.SessionPolicy)
	return policy
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg, env = t.Development, "development"
	case "prod", "production":
		cfg, env = t.Production, "production"
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	cfg.Environment = env
	return cfg, nil
}

// Load reads the TOML file at path and returns the config for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("check config file: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Environment, err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.WindowSize <= 0 {
		c.WindowSize = defaultWindowSize
	}
	if c.SessionPolicy == "" {
		c.SessionPolicy = string(planning.SessionPolicyFirst)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url not set")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("parse backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("backend_url must be an absolute http(s) url: %s", c.BackendURL)
	}
	if _, err := planning.ParseSessionPolicy(c.SessionPolicy); err != nil {
		return err
	}
	if c.PlanCacheTTLSeconds < 0 {
		return fmt.Errorf("plan_cache_ttl_seconds must not be negative: %d", c.PlanCacheTTLSeconds)
	}
	return nil
}
