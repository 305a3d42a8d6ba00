package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/redis/go-redis/v9"
)

// hitScript increments, expires on first hit, and rolls the increment back
// when it overshoots the ceiling, all in one atomic round trip. Denied
// requests never grow the counter.
//
// KEYS[1] window key, ARGV[1] window millis, ARGV[2] ceiling.
// Returns {count, pttl millis, allowed 0|1}.
var hitScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
if c > tonumber(ARGV[2]) then
  redis.call('DECR', KEYS[1])
  return {c - 1, redis.call('PTTL', KEYS[1]), 0}
end
return {c, redis.call('PTTL', KEYS[1]), 1}
`)

// RedisStore is the shared counter backend. Multiple service instances see
// the same windows.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, key string, max int, window time.Duration) (int, time.Time, bool, error) {
	res, err := hitScript.Run(ctx, s.client, []string{key}, window.Milliseconds(), max).Result()
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("rate limit script: %v: %w", err, domain.ErrUpstreamUnavailable)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return 0, time.Time{}, false, fmt.Errorf("rate limit script returned %T: %w", res, domain.ErrUpstreamUnavailable)
	}
	count := int(vals[0].(int64))
	pttl := vals[1].(int64)
	allowed := vals[2].(int64) == 1

	resetAt := time.Now().Add(window)
	if pttl > 0 {
		resetAt = time.Now().Add(time.Duration(pttl) * time.Millisecond)
	}
	return count, resetAt, allowed, nil
}
