package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result reports the outcome of a single attempt check. ResetAt is the
// absolute time the current window ends.
type Result struct {
	Allowed bool
	ResetAt time.Time
}

// RedisLimiter is a fixed-window attempt counter. Every Check both reads and
// writes the counter, so a denied attempt still burns budget.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Check increments the counter for key and reports whether the attempt is
// within budget. The first attempt of a window always passes and arms the
// window TTL. A storage error is returned as-is; callers must treat it as a
// failure, never as an implicit allow.
func (l *RedisLimiter) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr %q: %w", key, err)
	}

	if count == 1 {
		if err := l.client.PExpire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire %q: %w", key, err)
		}
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit ttl %q: %w", key, err)
	}
	if ttl < 0 {
		// Counter survived without a TTL (e.g. a crash between INCR and
		// PEXPIRE); restart the window rather than count forever.
		if err := l.client.PExpire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire %q: %w", key, err)
		}
		ttl = window
	}

	return Result{
		Allowed: count <= int64(max),
		ResetAt: time.Now().Add(ttl),
	}, nil
}

// Reset clears the counter for key immediately.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("rate limit reset %q: %w", key, err)
	}
	return nil
}

func LoginIPKey(ip string) string {
	return "login:ip:" + ip
}

func LoginEmailKey(email string) string {
	return "login:email:" + email
}
