package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request limiter shared by every process that
// points at the same Redis. Keys look like {prefix}:ratelimit:{client}:{window}.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// Lua script: count the hit and arm expiry on the first hit of a window
var hitScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return n
`)

// NewLimiter allows limit requests per client in every window.
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *Limiter) windowKey(key string) string {
	slot := l.now().UnixMilli() / l.window.Milliseconds()
	return fmt.Sprintf("%s:ratelimit:%s:%d", l.prefix, key, slot)
}

// Allow records one request for key and reports whether it fits in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 || l.window <= 0 {
		return false, errors.New("rate limiter requires a positive limit and window")
	}
	res, err := hitScript.Run(ctx, l.client, []string{l.windowKey(key)}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit hit: %w", err)
	}
	n, ok := res.(int64)
	if !ok {
		return false, errors.New("unexpected result type from Redis script")
	}
	return n <= int64(l.limit), nil
}

// Close closes the Redis connection
func (l *Limiter) Close() error {
	return l.client.Close()
}
