package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livescore/internal/admission"
	goredis "github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps one sorted-set member per admitted attempt,
// scored by its timestamp in milliseconds.
//
// KEYS[1] window key; ARGV: now_ms, window_ms, max, member.
var slidingWindowScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return 1
`)

// ConnectRateLimiter bounds WebSocket connect attempts per key across all
// instances sharing a Redis.
type ConnectRateLimiter struct {
	rdb    *goredis.Client
	clock  clockwork.Clock
	max    int
	window time.Duration
}

var _ admission.RateLimiter = (*ConnectRateLimiter)(nil)

func NewConnectRateLimiter(rdb *goredis.Client, clock clockwork.Clock, max int, window time.Duration) *ConnectRateLimiter {
	return &ConnectRateLimiter{rdb: rdb, clock: clock, max: max, window: window}
}

func (l *ConnectRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	result, err := slidingWindowScript.Run(ctx, l.rdb,
		[]string{"livescore:ws_connect:" + key},
		l.clock.Now().UnixMilli(),
		l.window.Milliseconds(),
		l.max,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("connect rate limit check failed: %w", err)
	}
	return result == 1, nil
}
