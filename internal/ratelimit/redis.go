package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every instance that talks
// to the same Redis.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) windowKey(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("ratelimit:%s:%s:%d", l.prefix, key, bucket)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.windowKey(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}

	return incr.Val() <= l.limit, nil
}

func (l *RedisLimiter) Middleware(next http.Handler) http.Handler {
	return Middleware(l)(next)
}
