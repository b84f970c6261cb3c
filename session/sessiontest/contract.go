// Package sessiontest holds the behavioural tests every session.Store
// implementation must pass.
package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/staffguard/session"
)

// Base is the fixed instant contract tests start from. It has millisecond
// precision so stores that persist milliseconds round-trip it exactly.
var Base = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) session.Store

// Run executes the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("DuplicateID", func(t *testing.T) { testDuplicateID(t, newStore(t)) })
	t.Run("TouchMonotonic", func(t *testing.T) { testTouchMonotonic(t, newStore(t)) })
	t.Run("ListOrderAndTieBreak", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore(t)) })
	t.Run("DeleteByOwnerExcept", func(t *testing.T) { testDeleteByOwnerExcept(t, newStore(t)) })
	t.Run("ListReturnsCopies", func(t *testing.T) { testListReturnsCopies(t, newStore(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
}

func testCreateAndGet(t *testing.T, store session.Store) {
	ctx := context.Background()
	meta := session.Metadata{IPAddress: "10.0.0.7", UserAgent: "circulation-desk/1.0"}

	created, err := store.Create(ctx, "s-1", "acct-1", meta, Base)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "s-1" || created.OwnerID != "acct-1" {
		t.Fatalf("unexpected created session: %+v", created)
	}
	if !created.CreatedAt.Equal(Base) || !created.LastActivityAt.Equal(Base) {
		t.Fatalf("expected timestamps at %v, got %+v", Base, created)
	}

	got, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != "acct-1" || got.IPAddress != meta.IPAddress || got.UserAgent != meta.UserAgent {
		t.Fatalf("unexpected stored session: %+v", got)
	}
	if !got.CreatedAt.Equal(Base) {
		t.Fatalf("created_at round trip: want %v got %v", Base, got.CreatedAt)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDuplicateID(t *testing.T, store session.Store) {
	ctx := context.Background()
	if _, err := store.Create(ctx, "dup", "acct-1", session.Metadata{}, Base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, "dup", "acct-2", session.Metadata{}, Base); !errors.Is(err, session.ErrDuplicateSessionID) {
		t.Fatalf("expected ErrDuplicateSessionID, got %v", err)
	}
	got, err := store.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != "acct-1" {
		t.Fatalf("duplicate create overwrote owner: %q", got.OwnerID)
	}
}

func testTouchMonotonic(t *testing.T, store session.Store) {
	ctx := context.Background()
	if _, err := store.Create(ctx, "s-1", "acct-1", session.Metadata{}, Base); err != nil {
		t.Fatalf("create: %v", err)
	}

	later := Base.Add(10 * time.Minute)
	if err := store.Touch(ctx, "s-1", later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := store.Touch(ctx, "s-1", Base.Add(-time.Hour)); err != nil {
		t.Fatalf("touch in the past: %v", err)
	}

	got, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.LastActivityAt.Equal(later) {
		t.Fatalf("expected last activity %v, got %v", later, got.LastActivityAt)
	}
	if got.LastActivityAt.Before(got.CreatedAt) {
		t.Fatalf("last activity before creation: %+v", got)
	}

	if err := store.Touch(ctx, "missing", later); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing touch, got %v", err)
	}
}

func testListOrder(t *testing.T, store session.Store) {
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, id, "acct-1", session.Metadata{}, Base); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if _, err := store.Create(ctx, "other", "acct-2", session.Metadata{}, Base); err != nil {
		t.Fatalf("create other: %v", err)
	}

	assertOrder(t, store, "acct-1", "a", "b", "c")

	if err := store.Touch(ctx, "a", Base.Add(time.Minute)); err != nil {
		t.Fatalf("touch: %v", err)
	}
	assertOrder(t, store, "acct-1", "b", "c", "a")

	// Repeated listings must agree on tie order.
	for i := 0; i < 5; i++ {
		assertOrder(t, store, "acct-1", "b", "c", "a")
	}

	empty, err := store.ListByOwner(ctx, "nobody")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no sessions, got %d", len(empty))
	}
}

func testDeleteIdempotent(t *testing.T, store session.Store) {
	ctx := context.Background()
	if _, err := store.Create(ctx, "s-1", "acct-1", session.Metadata{}, Base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := store.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, err := store.Get(ctx, "s-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	assertOrder(t, store, "acct-1")
}

func testDeleteByOwnerExcept(t *testing.T, store session.Store) {
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c", "d"} {
		if _, err := store.Create(ctx, id, "acct-1", session.Metadata{}, Base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if _, err := store.Create(ctx, "x", "acct-2", session.Metadata{}, Base); err != nil {
		t.Fatalf("create x: %v", err)
	}

	removed, err := store.DeleteByOwnerExcept(ctx, "acct-1", "c")
	if err != nil {
		t.Fatalf("delete except: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	assertOrder(t, store, "acct-1", "c")
	assertOrder(t, store, "acct-2", "x")

	removed, err = store.DeleteByOwnerExcept(ctx, "acct-1", "")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	assertOrder(t, store, "acct-1")
}

func testListReturnsCopies(t *testing.T, store session.Store) {
	ctx := context.Background()
	if _, err := store.Create(ctx, "s-1", "acct-1", session.Metadata{IPAddress: "10.0.0.1"}, Base); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := store.ListByOwner(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	list[0].IPAddress = "tampered"
	list[0].LastActivityAt = Base.Add(time.Hour)

	got, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IPAddress != "10.0.0.1" || !got.LastActivityAt.Equal(Base) {
		t.Fatalf("mutating listed session leaked into store: %+v", got)
	}
}

func testConcurrentCreate(t *testing.T, store session.Store) {
	ctx := context.Background()
	const workers = 16

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if _, err := store.Create(ctx, fmt.Sprintf("c-%02d", i), "acct-1", session.Metadata{}, Base); err != nil {
				errs <- err
			}
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}

	list, err := store.ListByOwner(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != workers {
		t.Fatalf("expected %d sessions, got %d", workers, len(list))
	}
	seen := make(map[uint64]bool, workers)
	for i, sess := range list {
		if seen[sess.Seq] {
			t.Fatalf("duplicate seq %d", sess.Seq)
		}
		seen[sess.Seq] = true
		if i > 0 && list[i-1].Seq > sess.Seq {
			t.Fatalf("equal timestamps not ordered by seq: %d before %d", list[i-1].Seq, sess.Seq)
		}
	}
}

func assertOrder(t *testing.T, store session.Store, owner string, want ...string) {
	t.Helper()
	list, err := store.ListByOwner(context.Background(), owner)
	if err != nil {
		t.Fatalf("list %s: %v", owner, err)
	}
	got := make([]string, len(list))
	for i, sess := range list {
		got[i] = sess.ID
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("owner %s: want order %v, got %v", owner, want, got)
	}
}
