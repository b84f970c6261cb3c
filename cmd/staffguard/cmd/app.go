package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/internal/config"
	"github.com/MrEthical07/staffguard/internal/db"
	"github.com/MrEthical07/staffguard/internal/logging"
	"github.com/MrEthical07/staffguard/sqlstore"
	"github.com/natefinch/lumberjack"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app holds the process-wide dependencies shared by subcommands.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	db     *gorm.DB
	store  *sqlstore.Store
	redis  redis.UniversalClient
	audit  *lumberjack.Logger
	engine *staffguard.Engine
}

// openApp loads config, opens the database and builds the engine.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	if a.db, err = db.Open(cfg.DatabaseDriver, cfg.DatabaseURL, log); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.DatabaseDriver != db.DriverPostgres {
		// Postgres schemas come from `staffguard migrate up`.
		if err := sqlstore.AutoMigrate(a.db); err != nil {
			a.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	a.store = sqlstore.New(a.db)

	if err := a.buildEngine(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) buildEngine() error {
	engineCfg, err := a.cfg.EngineConfig()
	if err != nil {
		return err
	}

	b := staffguard.New().
		WithConfig(engineCfg).
		WithAccountProvider(a.store).
		WithLogger(a.log)

	switch a.cfg.StoreBackend {
	case "redis":
		a.redis = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{a.cfg.RedisAddr}})
		b.WithRedis(a.redis, a.cfg.RedisPrefix)
	default:
		b.WithSessionStore(a.store).WithLockoutStore(a.store)
	}

	if a.cfg.AuditLog != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.AuditLog), 0o750); err != nil {
			return fmt.Errorf("audit log directory: %w", err)
		}
		a.audit = &lumberjack.Logger{
			Filename:   a.cfg.AuditLog,
			MaxSize:    100, // megabytes
			MaxBackups: 10,
			MaxAge:     90, // days
			Compress:   true,
		}
		b.WithAuditSink(staffguard.TeeSink{
			staffguard.NewJSONWriterSink(a.audit),
			staffguard.LogSink{Log: a.log.WithField("component", "audit")},
		})
	}

	a.engine, err = b.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	return nil
}

// ping checks every backing store the engine depends on.
func (a *app) ping(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return err
	}
	if a.redis != nil {
		return a.redis.Ping(ctx).Err()
	}
	return nil
}

// Close flushes audit events and releases connections.
func (a *app) Close() {
	if a == nil {
		return
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if a.audit != nil {
		_ = a.audit.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := db.Close(a.db); err != nil && a.log != nil {
		a.log.WithError(err).Warn("close database")
	}
}
