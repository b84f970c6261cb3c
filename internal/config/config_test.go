package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test in an empty directory so no stray .env is read.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/staffguard")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.True(t, cfg.CookieSecure)

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, engineCfg.Sessions.IdleTimeout)
	assert.Equal(t, 8*time.Hour, engineCfg.Sessions.AbsoluteTimeout)
	assert.Equal(t, map[string]int{"staff": 3, "admin": 1}, engineCfg.Sessions.RoleQuotas)
	assert.False(t, engineCfg.Audit.Enabled)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	content := "HTTP_ADDR=:9090\nDATABASE_DRIVER=sqlite\nDATABASE_URL=file:staff.db\nROLE_QUOTAS=staff=2,admin=1,auditor=4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)

	quotas, err := ParseRoleQuotas(cfg.RoleQuotas)
	require.NoError(t, err)
	assert.Equal(t, 4, quotas["auditor"])
}

func TestEnvOverridesDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOCKOUT_THRESHOLD=7\n"), 0o600))
	t.Setenv("LOCKOUT_THRESHOLD", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.LockoutThreshold)
}

func TestProductionRequiresStrongSecret(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_SECRET")

	t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
	_, err = Load()
	assert.NoError(t, err)
}

func TestValidateRejects(t *testing.T) {
	base := func() Config {
		return Config{
			HTTPAddr:               ":8080",
			DatabaseDriver:         "sqlite",
			StoreBackend:           "sql",
			SessionIdleTimeout:     "30m",
			SessionAbsoluteTimeout: "8h",
			LockoutThreshold:       5,
			RoleQuotas:             "staff=3,admin=1",
			CookieName:             "sid",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.HTTPAddr = "" }},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "oracle" }},
		{"unknown backend", func(c *Config) { c.StoreBackend = "etcd" }},
		{"redis without addr", func(c *Config) { c.StoreBackend = "redis"; c.RedisAddr = "" }},
		{"bad idle", func(c *Config) { c.SessionIdleTimeout = "half an hour" }},
		{"negative absolute", func(c *Config) { c.SessionAbsoluteTimeout = "-1h" }},
		{"zero threshold", func(c *Config) { c.LockoutThreshold = 0 }},
		{"bad quota", func(c *Config) { c.RoleQuotas = "staff=three" }},
		{"zero quota", func(c *Config) { c.RoleQuotas = "staff=0" }},
		{"empty quotas", func(c *Config) { c.RoleQuotas = " , " }},
		{"no cookie", func(c *Config) { c.CookieName = "" }},
		{"insecure production cookie", func(c *Config) {
			c.Env = "production"
			c.TokenSecret = "0123456789abcdef0123456789abcdef"
			c.CookieSecure = false
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			require.NoError(t, cfg.Validate())
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEngineConfigRejectsIdleBeyondAbsolute(t *testing.T) {
	cfg := Config{
		SessionIdleTimeout:     "9h",
		SessionAbsoluteTimeout: "8h",
		LockoutThreshold:       5,
		RoleQuotas:             "staff=3",
	}
	_, err := cfg.EngineConfig()
	assert.Error(t, err)
}
