// Package config loads and validates service config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/staffguard"
	"github.com/spf13/viper"
)

// MinTokenSecretLength is the shortest TOKEN_SECRET accepted in production.
const MinTokenSecretLength = 32

// Config holds service configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseDriver is postgres, mysql, or sqlite.
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	// DatabaseURL is the DSN for DatabaseDriver.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// StoreBackend selects where sessions and lockout records live: sql or redis.
	// Accounts always live in the SQL database.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisPrefix  string `mapstructure:"REDIS_PREFIX"`

	SessionIdleTimeout     string `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SessionAbsoluteTimeout string `mapstructure:"SESSION_ABSOLUTE_TIMEOUT"`
	LockoutThreshold       int    `mapstructure:"LOCKOUT_THRESHOLD"`
	// RoleQuotas is a comma-separated role=max list, e.g. "staff=3,admin=1".
	RoleQuotas string `mapstructure:"ROLE_QUOTAS"`

	// TokenSecret signs session cookies (HS256).
	TokenSecret  string `mapstructure:"TOKEN_SECRET"`
	CookieName   string `mapstructure:"COOKIE_NAME"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
	// AuditLog, when set, receives one JSON audit event per line.
	AuditLog string `mapstructure:"AUDIT_LOG"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_BACKEND", "sql")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PREFIX", "sg")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_ABSOLUTE_TIMEOUT", "8h")
	v.SetDefault("LOCKOUT_THRESHOLD", 5)
	v.SetDefault("ROLE_QUOTAS", "staff=3,admin=1")
	v.SetDefault("TOKEN_SECRET", "")
	v.SetDefault("COOKIE_NAME", "staffguard_session")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("AUDIT_LOG", "")
	v.SetDefault("APP_ENV", "")
}

// Validate checks field formats and production requirements.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	switch c.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("config: DATABASE_DRIVER must be postgres, mysql or sqlite, got %q", c.DatabaseDriver)
	}
	switch c.StoreBackend {
	case "sql":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR must be set when STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: STORE_BACKEND must be sql or redis, got %q", c.StoreBackend)
	}
	if _, err := c.IdleTimeout(); err != nil {
		return err
	}
	if _, err := c.AbsoluteTimeout(); err != nil {
		return err
	}
	if c.LockoutThreshold < 1 {
		return errors.New("config: LOCKOUT_THRESHOLD must be >= 1")
	}
	if _, err := ParseRoleQuotas(c.RoleQuotas); err != nil {
		return err
	}
	if c.CookieName == "" {
		return errors.New("config: COOKIE_NAME must be set")
	}
	if c.Env == "production" {
		if len(c.TokenSecret) < MinTokenSecretLength {
			return fmt.Errorf("config: TOKEN_SECRET must be at least %d bytes when APP_ENV=production", MinTokenSecretLength)
		}
		if !c.CookieSecure {
			return errors.New("config: COOKIE_SECURE must not be false when APP_ENV=production")
		}
	}
	return nil
}

// IdleTimeout parses SESSION_IDLE_TIMEOUT.
func (c *Config) IdleTimeout() (time.Duration, error) {
	return parseDuration("SESSION_IDLE_TIMEOUT", c.SessionIdleTimeout)
}

// AbsoluteTimeout parses SESSION_ABSOLUTE_TIMEOUT.
func (c *Config) AbsoluteTimeout() (time.Duration, error) {
	return parseDuration("SESSION_ABSOLUTE_TIMEOUT", c.SessionAbsoluteTimeout)
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: %s must be a non-negative duration, got %q", key, raw)
	}
	return d, nil
}

// ParseRoleQuotas parses "staff=3,admin=1" into a map.
func ParseRoleQuotas(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, max, ok := strings.Cut(part, "=")
		role = strings.TrimSpace(role)
		if !ok || role == "" {
			return nil, fmt.Errorf("config: ROLE_QUOTAS entry %q must be role=max", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(max))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: ROLE_QUOTAS quota for %q must be a positive integer", role)
		}
		out[role] = n
	}
	if len(out) == 0 {
		return nil, errors.New("config: ROLE_QUOTAS must name at least one role")
	}
	return out, nil
}

// EngineConfig maps the service settings onto the engine configuration.
func (c *Config) EngineConfig() (staffguard.Config, error) {
	cfg := staffguard.DefaultConfig()

	idle, err := c.IdleTimeout()
	if err != nil {
		return cfg, err
	}
	absolute, err := c.AbsoluteTimeout()
	if err != nil {
		return cfg, err
	}
	quotas, err := ParseRoleQuotas(c.RoleQuotas)
	if err != nil {
		return cfg, err
	}

	cfg.Lockout.Threshold = c.LockoutThreshold
	cfg.Sessions.IdleTimeout = idle
	cfg.Sessions.AbsoluteTimeout = absolute
	cfg.Sessions.RoleQuotas = quotas
	cfg.Audit.Enabled = c.AuditLog != ""
	cfg.Metrics.EnableLatencyHistograms = true

	return cfg, cfg.Validate()
}
