// Package sqlstore keeps sessions, lockout records, and staff accounts in a
// relational database through gorm. One Store satisfies session.Store,
// lockout.Store, and staffguard.AccountProvider.
package sqlstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Store is the gorm-backed persistence layer.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the three tables. Production Postgres
// deployments use the versioned migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return errors.WithStack(db.AutoMigrate(&sessionRow{}, &lockoutRow{}, &accountRow{}))
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.PingContext(ctx))
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
