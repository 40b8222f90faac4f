package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"streamify/internal/config"
)

// LoginLimiter throttles repeated login attempts per account.
type LoginLimiter interface {
	// Allow reports whether another attempt for this email may proceed.
	// A non-nil error means the limiter itself failed; callers fail open.
	Allow(ctx context.Context, email string) (bool, error)
}

type redisLoginLimiter struct {
	client *redis.Client
	cfg    config.RateLimitConfig
}

// NewRedisLoginLimiter creates a fixed-window login limiter backed by Redis.
func NewRedisLoginLimiter(client *redis.Client, cfg config.RateLimitConfig) LoginLimiter {
	return &redisLoginLimiter{client: client, cfg: cfg}
}

const loginAttemptKeyPrefix = "rl:login:"

func (r *redisLoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := loginAttemptKeyPrefix + strings.ToLower(email)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("incrementing login attempt counter for %s: %w", email, err)
	}
	if count == 1 {
		// First attempt in this window opens it.
		if err := r.client.Expire(ctx, key, r.cfg.LoginWindow).Err(); err != nil {
			return true, fmt.Errorf("setting login attempt window for %s: %w", email, err)
		}
	}
	return count <= int64(r.cfg.LoginMaxAttempts), nil
}
