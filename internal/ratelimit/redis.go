package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// INCR + PEXPIRE on first hit gives a fixed window per key; the PTTL
// reply tells callers when the window resets.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

func NewRedis(addr, password string, db int) (Limiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLimiter{client: client, now: time.Now}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}

	result, err := allowScript.Run(ctx, r.client, []string{key}, windowMillis).Result()
	if err != nil {
		return Decision{}, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, errors.New("unexpected redis reply")
	}
	current, _ := values[0].(int64)
	ttl, _ := values[1].(int64)

	resetAt := r.now().Add(time.Duration(ttl) * time.Millisecond)
	if current > int64(limit) {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}, nil
	}
	remaining := limit - int(current)
	return Decision{Allowed: true, Limit: limit, Remaining: remaining, ResetAt: resetAt}, nil
}
