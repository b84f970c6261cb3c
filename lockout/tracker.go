package lockout

import (
	"context"
	"errors"
	"time"
)

// DefaultThreshold is the number of consecutive failures that locks an account.
const DefaultThreshold = 5

// Outcome describes the effect of one recorded failure.
type Outcome struct {
	FailureCount int
	Locked       bool
	// JustLocked is true only for the failure that caused the lock.
	JustLocked bool
	// LockedAt is the lock time the store recorded; zero while unlocked.
	LockedAt time.Time
}

// Tracker counts consecutive failed logins per account and locks the account
// at the threshold. Only [Tracker.Unlock] clears a lock.
type Tracker struct {
	store     Store
	threshold int
	now       func() time.Time
}

// NewTracker builds a tracker. now supplies lock timestamps; nil means time.Now.
func NewTracker(store Store, threshold int, now func() time.Time) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	if threshold < 1 {
		return nil, errors.New("lockout threshold must be >= 1")
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, threshold: threshold, now: now}, nil
}

// Threshold returns the configured failure threshold.
func (t *Tracker) Threshold() int {
	return t.threshold
}

// RecordFailure counts one failed verification.
func (t *Tracker) RecordFailure(ctx context.Context, accountID string) (Outcome, error) {
	state, newlyLocked, err := t.store.IncrementFailures(ctx, accountID, t.threshold, t.now())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		FailureCount: state.Failures,
		Locked:       state.Locked,
		JustLocked:   newlyLocked,
		LockedAt:     state.LockedAt,
	}, nil
}

// RecordSuccess resets the counter after a verified login.
func (t *Tracker) RecordSuccess(ctx context.Context, accountID string) error {
	return t.store.ResetFailures(ctx, accountID)
}

// IsLocked reports whether the account is currently locked.
func (t *Tracker) IsLocked(ctx context.Context, accountID string) (bool, error) {
	state, err := t.store.Load(ctx, accountID)
	if err != nil {
		return false, err
	}
	return state.Locked, nil
}

// State returns the full lockout record.
func (t *Tracker) State(ctx context.Context, accountID string) (State, error) {
	return t.store.Load(ctx, accountID)
}

// Remaining returns how many more failures the account can absorb before it
// locks. It is zero once locked.
func (t *Tracker) Remaining(state State) int {
	if state.Locked || state.Failures >= t.threshold {
		return 0
	}
	return t.threshold - state.Failures
}

// Unlock is the administrative reset: it clears the lock and the counter.
func (t *Tracker) Unlock(ctx context.Context, accountID string) error {
	return t.store.Unlock(ctx, accountID)
}
