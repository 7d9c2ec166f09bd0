package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KEYS[1]=counter ARGV[1]=limit; -1 when the limit is already reached.
var reserveScript = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v >= tonumber(ARGV[1]) then
  return -1
end
return redis.call('INCR', KEYS[1])
`)

var releaseScript = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v <= 0 then
  return 0
end
return redis.call('DECR', KEYS[1])
`)

type redisUsageLedger struct {
	client redis.Cmdable
	prefix string
}

// NewRedisUsageLedger stores one integer key per user: <prefix>:<user_id>.
func NewRedisUsageLedger(client redis.Cmdable, prefix string) UsageLedger {
	if prefix == "" {
		prefix = "usage"
	}
	return &redisUsageLedger{client: client, prefix: prefix}
}

func (l *redisUsageLedger) key(userID string) string {
	return l.prefix + ":" + userID
}

func (l *redisUsageLedger) Get(ctx context.Context, userID string) (int, bool, error) {
	v, err := l.client.Get(ctx, l.key(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (l *redisUsageLedger) Init(ctx context.Context, userID string) (int, error) {
	if err := l.client.SetNX(ctx, l.key(userID), 0, 0).Err(); err != nil {
		return 0, err
	}
	v, _, err := l.Get(ctx, userID)
	return v, err
}

func (l *redisUsageLedger) Reserve(ctx context.Context, userID string, limit int) (int, error) {
	v, err := reserveScript.Run(ctx, l.client, []string{l.key(userID)}, limit).Int()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrFreeLimitReached
	}
	return v, nil
}

func (l *redisUsageLedger) Release(ctx context.Context, userID string) error {
	return releaseScript.Run(ctx, l.client, []string{l.key(userID)}).Err()
}
