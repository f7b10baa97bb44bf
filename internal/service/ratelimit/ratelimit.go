// Package ratelimit throttles failed logins per identifier with a fixed window counter in Redis
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/vidtube/internal/apperrors"
)

const (
	defaultMaxAttempts = 5
	defaultCooldown    = 15 * time.Minute
	defaultPrefix      = "vidtube:login:"
)

// Returned when Redis can't be reached, callers may decide to let the request through
var ErrUnavailable = errors.New("login limiter unavailable")

type Config struct {
	// Failed attempts allowed within the window
	MaxAttempts int

	// Window length, counted from the first failure
	Cooldown time.Duration

	// Redis key prefix
	Prefix string
}

type LoginLimiter struct {
	redis       redis.Cmdable
	maxAttempts int64
	cooldown    time.Duration
	prefix      string
}

func NewLoginLimiter(client redis.Cmdable, cfg Config) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	return &LoginLimiter{
		redis:       client,
		maxAttempts: int64(cfg.MaxAttempts),
		cooldown:    cfg.Cooldown,
		prefix:      cfg.Prefix,
	}
}

func (l *LoginLimiter) key(login string) string {
	return l.prefix + login
}

// Check fails with apperrors.ErrTooManyAttempts if login exhausted its attempts
func (l *LoginLimiter) Check(ctx context.Context, login string) error {
	count, err := l.redis.Get(ctx, l.key(login)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= l.maxAttempts {
		return apperrors.ErrTooManyAttempts
	}
	return nil
}

// RecordFailure counts failed attempt, the window starts with the first one
func (l *LoginLimiter) RecordFailure(ctx context.Context, login string) error {
	count, err := l.redis.Incr(ctx, l.key(login)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(login), l.cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Reset forgets failures, called after successful login
func (l *LoginLimiter) Reset(ctx context.Context, login string) error {
	if err := l.redis.Del(ctx, l.key(login)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
