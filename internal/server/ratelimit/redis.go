package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces rate limit counters in Redis.
const DefaultRedisPrefix = "sankalp:ratelimit"

// RedisBackend counts requests in fixed windows shared by every server instance.
// Burst is ignored: a window admits at most Limit requests.
type RedisBackend struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisBackend wraps a Redis client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: DefaultRedisPrefix,
		now:    time.Now,
	}
}

// NewRedisClient creates a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Take implements Backend.
func (b *RedisBackend) Take(ctx context.Context, key string, cfg EndpointConfig) (Info, error) {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	now := b.now()
	start := now.Truncate(window)
	reset := start.Add(window)
	counterKey := fmt.Sprintf("%s:%s:%d", b.prefix, key, start.Unix())

	var incr *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, counterKey)
		pipe.Expire(ctx, counterKey, window+time.Second)
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("redis counter %s: %w", counterKey, err)
	}

	count := int(incr.Val())
	info := Info{
		Allowed:   count <= cfg.Limit,
		Limit:     cfg.Limit,
		Remaining: max(cfg.Limit-count, 0),
		ResetTime: reset,
	}
	if !info.Allowed {
		info.RetryAfter = reset.Sub(now)
	}
	return info, nil
}
