// Package lockouttest holds the behavioural tests every lockout.Store
// implementation must pass.
package lockouttest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/staffguard/lockout"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) lockout.Store

var base = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// Run executes the lockout store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	t.Run("LocksAtThreshold", func(t *testing.T) { testLocksAtThreshold(t, newStore(t)) })
	t.Run("ResetLeavesLockAlone", func(t *testing.T) { testResetLeavesLock(t, newStore(t)) })
	t.Run("UnlockClearsEverything", func(t *testing.T) { testUnlock(t, newStore(t)) })
	t.Run("AccountsAreIndependent", func(t *testing.T) { testIndependent(t, newStore(t)) })
	t.Run("ConcurrentFailuresLockOnce", func(t *testing.T) { testConcurrent(t, newStore(t)) })
}

func testLocksAtThreshold(t *testing.T, store lockout.Store) {
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		st, newly, err := store.IncrementFailures(ctx, "acct-1", 5, base)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if st.Failures != i || st.Locked || newly {
			t.Fatalf("after %d failures: %+v newly=%v", i, st, newly)
		}
	}

	lockTime := base.Add(time.Minute)
	st, newly, err := store.IncrementFailures(ctx, "acct-1", 5, lockTime)
	if err != nil {
		t.Fatalf("increment 5: %v", err)
	}
	if !newly || !st.Locked || st.Failures != 5 {
		t.Fatalf("5th failure should lock: %+v newly=%v", st, newly)
	}
	if !st.LockedAt.Equal(lockTime) {
		t.Fatalf("locked_at want %v got %v", lockTime, st.LockedAt)
	}

	st, newly, err = store.IncrementFailures(ctx, "acct-1", 5, lockTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("increment 6: %v", err)
	}
	if newly || !st.Locked {
		t.Fatalf("6th failure must not report a new lock: %+v newly=%v", st, newly)
	}
	if !st.LockedAt.Equal(lockTime) {
		t.Fatalf("locked_at moved: %v", st.LockedAt)
	}

	loaded, err := store.Load(ctx, "acct-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Locked || loaded.Failures != 6 {
		t.Fatalf("unexpected loaded state %+v", loaded)
	}
}

func testResetLeavesLock(t *testing.T, store lockout.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := store.IncrementFailures(ctx, "acct-1", 5, base); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := store.ResetFailures(ctx, "acct-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st, err := store.Load(ctx, "acct-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Failures != 0 || st.Locked {
		t.Fatalf("reset should clear failures: %+v", st)
	}

	for i := 0; i < 5; i++ {
		if _, _, err := store.IncrementFailures(ctx, "acct-2", 5, base); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := store.ResetFailures(ctx, "acct-2"); err != nil {
		t.Fatalf("reset locked: %v", err)
	}
	st, err = store.Load(ctx, "acct-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !st.Locked {
		t.Fatalf("reset must not clear a lock: %+v", st)
	}
}

func testUnlock(t *testing.T, store lockout.Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, _, err := store.IncrementFailures(ctx, "acct-1", 5, base); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := store.Unlock(ctx, "acct-1"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	st, err := store.Load(ctx, "acct-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Locked || st.Failures != 0 || !st.LockedAt.IsZero() {
		t.Fatalf("unlock should clear state: %+v", st)
	}
	if err := store.Unlock(ctx, "never-locked"); err != nil {
		t.Fatalf("unlock unknown account: %v", err)
	}
}

func testIndependent(t *testing.T, store lockout.Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, _, err := store.IncrementFailures(ctx, "acct-1", 5, base); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	st, err := store.Load(ctx, "acct-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Locked || st.Failures != 0 {
		t.Fatalf("acct-2 affected by acct-1: %+v", st)
	}
}

func testConcurrent(t *testing.T, store lockout.Store) {
	ctx := context.Background()
	const attempts = 20

	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	newlyCount := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, newly, err := store.IncrementFailures(ctx, "acct-1", 5, base)
			if err != nil {
				t.Errorf("increment: %v", err)
				return
			}
			if newly {
				mu.Lock()
				newlyCount++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if newlyCount != 1 {
		t.Fatalf("expected exactly one newly-locked observation, got %d", newlyCount)
	}
	st, err := store.Load(ctx, "acct-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !st.Locked || st.Failures != attempts {
		t.Fatalf("expected locked with %d failures, got %+v", attempts, st)
	}
}
