package staffguard

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/staffguard/lockout"
	"github.com/MrEthical07/staffguard/session"
)

// Config is the engine configuration. Start from [DefaultConfig] and adjust.
type Config struct {
	Lockout  LockoutConfig
	Sessions SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// LockoutConfig controls the consecutive-failure lock.
type LockoutConfig struct {
	Threshold int
}

// SessionConfig controls timeouts and per-role quotas.
type SessionConfig struct {
	// IdleTimeout and AbsoluteTimeout are measured from LastActivityAt and
	// CreatedAt respectively. Zero disables one check; both cannot be zero.
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration

	// RoleQuotas maps a role to its maximum concurrent sessions. DefaultQuota
	// applies to roles missing from the table; zero rejects such roles.
	RoleQuotas   map[string]int
	DefaultQuota int

	// MaxCreateAttempts bounds retries when a generated session id collides.
	MaxCreateAttempts int

	// RevokeOnLock deletes every session of an account when it becomes locked.
	RevokeOnLock bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns threshold 5, 30m idle, 8h absolute, staff=3 and admin=1.
func DefaultConfig() Config {
	return Config{
		Lockout: LockoutConfig{
			Threshold: lockout.DefaultThreshold,
		},
		Sessions: SessionConfig{
			IdleTimeout:       session.DefaultIdleTimeout,
			AbsoluteTimeout:   session.DefaultAbsoluteTimeout,
			RoleQuotas:        session.DefaultRoleQuotas(),
			MaxCreateAttempts: 3,
			RevokeOnLock:      true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Sessions.RoleQuotas != nil {
		out.Sessions.RoleQuotas = make(map[string]int, len(cfg.Sessions.RoleQuotas))
		for role, max := range cfg.Sessions.RoleQuotas {
			out.Sessions.RoleQuotas[role] = max
		}
	}
	return out
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Lockout.Threshold < 1 {
		return errors.New("Lockout Threshold must be >= 1")
	}

	if c.Sessions.IdleTimeout < 0 {
		return errors.New("Sessions IdleTimeout must be >= 0")
	}
	if c.Sessions.AbsoluteTimeout < 0 {
		return errors.New("Sessions AbsoluteTimeout must be >= 0")
	}
	if c.Sessions.IdleTimeout == 0 && c.Sessions.AbsoluteTimeout == 0 {
		return errors.New("Sessions IdleTimeout and AbsoluteTimeout cannot both be disabled")
	}
	if c.Sessions.AbsoluteTimeout > 0 && c.Sessions.IdleTimeout > c.Sessions.AbsoluteTimeout {
		return errors.New("Sessions IdleTimeout must not exceed AbsoluteTimeout")
	}
	if len(c.Sessions.RoleQuotas) == 0 && c.Sessions.DefaultQuota <= 0 {
		return errors.New("Sessions RoleQuotas must not be empty without a DefaultQuota")
	}
	for role, max := range c.Sessions.RoleQuotas {
		if max < 1 {
			return fmt.Errorf("Sessions RoleQuotas[%q] must be >= 1", role)
		}
	}
	if c.Sessions.DefaultQuota < 0 {
		return errors.New("Sessions DefaultQuota must be >= 0")
	}
	if c.Sessions.MaxCreateAttempts < 1 {
		return errors.New("Sessions MaxCreateAttempts must be >= 1")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (c Config) timeoutPolicy() session.TimeoutPolicy {
	return session.TimeoutPolicy{
		Idle:     c.Sessions.IdleTimeout,
		Absolute: c.Sessions.AbsoluteTimeout,
	}
}
