package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/staffguard/session"
	"github.com/MrEthical07/staffguard/session/sessiontest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*session.RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return session.NewRedisStore(rdb, "sg", 9*time.Hour), mr, rdb
}

func TestRedisStoreContract(t *testing.T) {
	sessiontest.Run(t, func(t *testing.T) session.Store {
		store, _, _ := newRedisStoreTest(t)
		return store
	})
}

func TestRedisStoreSetsTTLOnCreate(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "s-1", "acct-1", session.Metadata{}, sessiontest.Base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ttl := mr.TTL("sg:s:s-1"); ttl != 9*time.Hour {
		t.Fatalf("expected 9h ttl, got %v", ttl)
	}
}

func TestRedisStoreListDropsExpiredIndexEntries(t *testing.T) {
	store, mr, rdb := newRedisStoreTest(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := store.Create(ctx, id, "acct-1", session.Metadata{}, sessiontest.Base); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	mr.Del("sg:s:a")

	list, err := store.ListByOwner(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", list)
	}

	members, err := rdb.SMembers(ctx, "sg:o:acct-1").Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf("stale index entry not removed: %v", members)
	}
}

func TestRedisStoreDeleteCleansOwnerIndex(t *testing.T) {
	store, _, rdb := newRedisStoreTest(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "s-1", "acct-1", session.Metadata{}, sessiontest.Base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	exists, err := rdb.Exists(ctx, "sg:o:acct-1").Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 0 {
		t.Fatal("owner index should be empty after last delete")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	mr.Close()
	ctx := context.Background()

	if _, err := store.Create(ctx, "s-1", "acct-1", session.Metadata{}, sessiontest.Base); !errors.Is(err, session.ErrUnavailable) {
		t.Fatalf("create: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.Get(ctx, "s-1"); !errors.Is(err, session.ErrUnavailable) {
		t.Fatalf("get: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.ListByOwner(ctx, "acct-1"); !errors.Is(err, session.ErrUnavailable) {
		t.Fatalf("list: expected ErrUnavailable, got %v", err)
	}
	if err := store.Delete(ctx, "s-1"); !errors.Is(err, session.ErrUnavailable) {
		t.Fatalf("delete: expected ErrUnavailable, got %v", err)
	}
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	store, mr, _ := newRedisStoreTest(t)
	mr.HSet("sg:s:bad", "owner", "acct-1", "created", "not-a-number", "last", "1", "seq", "1")

	if _, err := store.Get(context.Background(), "bad"); !errors.Is(err, session.ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}
