package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const incrementFailuresScript = `
local failures = redis.call("HINCRBY", KEYS[1], "failures", 1)
local locked = redis.call("HGET", KEYS[1], "locked")
local newly = 0
if locked ~= "1" and failures >= tonumber(ARGV[1]) then
  redis.call("HSET", KEYS[1], "locked", "1", "locked_at", ARGV[2])
  locked = "1"
  newly = 1
end
local locked_at = redis.call("HGET", KEYS[1], "locked_at") or ""
local is_locked = 0
if locked == "1" then
  is_locked = 1
end
return {failures, is_locked, newly, locked_at}
`

var incrementFailuresLua = redis.NewScript(incrementFailuresScript)

const resetFailuresScript = `
if redis.call("HGET", KEYS[1], "locked") == "1" then
  return 0
end
return redis.call("DEL", KEYS[1])
`

var resetFailuresLua = redis.NewScript(resetFailuresScript)

// RedisStore keeps one hash per account under "<prefix>:l:<account>".
// Lockout records carry no TTL: a lock lasts until Unlock.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed lockout [Store]. prefix namespaces
// the keys and defaults to "sg", matching the session store.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sg"
	}
	return &RedisStore{redis: client, prefix: prefix + ":l:"}
}

func (s *RedisStore) key(accountID string) string {
	return s.prefix + accountID
}

func (s *RedisStore) IncrementFailures(ctx context.Context, accountID string, threshold int, now time.Time) (State, bool, error) {
	res, err := incrementFailuresLua.Run(ctx, s.redis, []string{s.key(accountID)}, threshold, now.UnixMilli()).Slice()
	if err != nil {
		return State{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res) != 4 {
		return State{}, false, fmt.Errorf("%w: unexpected script reply %v", ErrUnavailable, res)
	}

	failures, _ := res[0].(int64)
	locked, _ := res[1].(int64)
	newly, _ := res[2].(int64)
	lockedAtRaw, _ := res[3].(string)

	st := State{Failures: int(failures), Locked: locked == 1}
	if st.Locked {
		st.LockedAt = parseMillis(lockedAtRaw)
	}
	return st, newly == 1, nil
}

func (s *RedisStore) ResetFailures(ctx context.Context, accountID string) error {
	if err := resetFailuresLua.Run(ctx, s.redis, []string{s.key(accountID)}).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, accountID string) (State, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	failures, _ := strconv.Atoi(fields["failures"])
	st := State{Failures: failures, Locked: fields["locked"] == "1"}
	if st.Locked {
		st.LockedAt = parseMillis(fields["locked_at"])
	}
	return st, nil
}

func (s *RedisStore) Unlock(ctx context.Context, accountID string) error {
	if err := s.redis.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func parseMillis(raw string) time.Time {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
