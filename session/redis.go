package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const createSessionScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
local seq = redis.call("INCR", KEYS[3])
redis.call("HSET", KEYS[1],
  "owner", ARGV[1],
  "created", ARGV[2],
  "last", ARGV[2],
  "ip", ARGV[3],
  "ua", ARGV[4],
  "seq", seq)
redis.call("SADD", KEYS[2], ARGV[5])
local ttl = tonumber(ARGV[6])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[1], ttl)
end
return seq
`

var createSessionLua = redis.NewScript(createSessionScript)

const touchSessionScript = `
local last = redis.call("HGET", KEYS[1], "last")
if not last then
  return 0
end
if tonumber(ARGV[1]) > tonumber(last) then
  redis.call("HSET", KEYS[1], "last", ARGV[1])
end
return 1
`

var touchSessionLua = redis.NewScript(touchSessionScript)

const deleteSessionScript = `
local owner = redis.call("HGET", KEYS[1], "owner")
if not owner then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. owner, ARGV[2])
return 1
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

const deleteOwnerExceptScript = `
local ids = redis.call("SMEMBERS", KEYS[1])
local removed = 0
for _, id in ipairs(ids) do
  if id ~= ARGV[2] then
    removed = removed + redis.call("DEL", ARGV[1] .. id)
    redis.call("SREM", KEYS[1], id)
  end
end
return removed
`

var deleteOwnerExceptLua = redis.NewScript(deleteOwnerExceptScript)

// RedisStore is a Redis-backed [Store].
//
// Each session is a hash under "<prefix>:s:<id>". Owners are indexed by a set
// under "<prefix>:o:<owner>", and "<prefix>:seq" hands out insertion
// sequence numbers. Owner index entries whose hash has expired are removed
// lazily by ListByOwner.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore]. A positive ttl is set on each session
// hash at creation; it should be at least the absolute session timeout.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sg"
	}
	return &RedisStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) sessionPrefix() string { return s.prefix + ":s:" }
func (s *RedisStore) ownerPrefix() string   { return s.prefix + ":o:" }

func (s *RedisStore) key(id string) string        { return s.sessionPrefix() + id }
func (s *RedisStore) ownerKey(owner string) string { return s.ownerPrefix() + owner }
func (s *RedisStore) seqKey() string               { return s.prefix + ":seq" }

func (s *RedisStore) Create(ctx context.Context, id, ownerID string, meta Metadata, now time.Time) (*Session, error) {
	nowMs := now.UnixMilli()
	seq, err := createSessionLua.Run(ctx, s.redis,
		[]string{s.key(id), s.ownerKey(ownerID), s.seqKey()},
		ownerID, nowMs, meta.IPAddress, meta.UserAgent, id, s.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if seq == 0 {
		return nil, ErrDuplicateSessionID
	}

	created := time.UnixMilli(nowMs)
	return &Session{
		ID:             id,
		OwnerID:        ownerID,
		CreatedAt:      created,
		LastActivityAt: created,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		Seq:            uint64(seq),
	}, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string, now time.Time) error {
	ok, err := touchSessionLua.Run(ctx, s.redis, []string{s.key(id)}, now.UnixMilli()).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ok == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeHash(id, fields)
}

// ListByOwner reads the owner index, then fetches every hash in a single
// pipeline. Ordering is applied client-side.
func (s *RedisStore) ListByOwner(ctx context.Context, ownerID string) ([]*Session, error) {
	ownerKey := s.ownerKey(ownerID)
	ids, err := s.redis.SMembers(ctx, ownerKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]*Session, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(fields) == 0 {
			stale = append(stale, ids[i])
			continue
		}
		sess, err := decodeHash(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, ownerKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	SortOldestFirst(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(id)}, s.ownerPrefix(), id).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) DeleteByOwnerExcept(ctx context.Context, ownerID, keepID string) (int, error) {
	removed, err := deleteOwnerExceptLua.Run(ctx, s.redis,
		[]string{s.ownerKey(ownerID)}, s.sessionPrefix(), keepID,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(removed), nil
}

// ErrCorruptRecord is returned when a stored session hash cannot be decoded.
var ErrCorruptRecord = errors.New("session record corrupt")

func decodeHash(id string, fields map[string]string) (*Session, error) {
	created, err := strconv.ParseInt(fields["created"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: created: %v", ErrCorruptRecord, err)
	}
	last, err := strconv.ParseInt(fields["last"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: last: %v", ErrCorruptRecord, err)
	}
	seq, err := strconv.ParseUint(fields["seq"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: seq: %v", ErrCorruptRecord, err)
	}
	return &Session{
		ID:             id,
		OwnerID:        fields["owner"],
		CreatedAt:      time.UnixMilli(created),
		LastActivityAt: time.UnixMilli(last),
		IPAddress:      fields["ip"],
		UserAgent:      fields["ua"],
		Seq:            seq,
	}, nil
}
