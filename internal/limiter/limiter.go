// Package limiter counts attempts per key in fixed Redis windows.
package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter allows at most Max attempts per key within Window. A nil Limiter,
// or one without a Redis client, allows everything. Redis failures are
// logged and the attempt is allowed.
type Limiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
	prefix string
	logger *slog.Logger
}

func New(rdb *redis.Client, prefix string, max int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{rdb: rdb, max: int64(max), window: window, prefix: prefix, logger: logger}
}

// Connect returns a client for addr, or nil when addr is empty or the server
// does not answer.
func Connect(ctx context.Context, addr, password string, logger *slog.Logger) *redis.Client {
	if addr == "" {
		logger.Warn("REDIS_ADDR not set, verification attempts will not be limited")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "addr", addr, "error", err)
		rdb.Close()
		return nil
	}
	logger.Info("connected to Redis", "addr", addr)
	return rdb
}

func (l *Limiter) Key(parts ...string) string {
	if l == nil {
		return ""
	}
	key := l.prefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Allow records one attempt for key and reports whether it is within the
// limit, together with the time left in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil || l.rdb == nil || l.max <= 0 {
		return true, 0
	}

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		l.logger.Error("attempt limiter unavailable", "key", key, "error", err)
		return true, 0
	}

	count := incr.Val()
	if count > l.max {
		return false, ttl.Val()
	}
	return true, 0
}

// Reset clears the attempts for key, e.g. after a successful verification.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	if err := l.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts for %s: %w", key, err)
	}
	return nil
}
