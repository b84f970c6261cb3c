package lockout

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the lockout backend is unreachable.
var ErrUnavailable = errors.New("lockout backend unavailable")

// State is the persisted lockout record of one account.
type State struct {
	Failures int
	Locked   bool
	LockedAt time.Time
}

// Store persists lockout records. Every method must be atomic per account.
type Store interface {
	// IncrementFailures adds one failure. When the new count reaches
	// threshold and the account is not yet locked, the store locks it with
	// LockedAt = now and reports newlyLocked. Of several racing callers at
	// most one observes newlyLocked.
	IncrementFailures(ctx context.Context, accountID string, threshold int, now time.Time) (state State, newlyLocked bool, err error)
	// ResetFailures clears the counter of an unlocked account. It leaves a
	// locked record untouched.
	ResetFailures(ctx context.Context, accountID string) error
	Load(ctx context.Context, accountID string) (State, error)
	// Unlock clears the lock, its timestamp, and the counter.
	Unlock(ctx context.Context, accountID string) error
}
