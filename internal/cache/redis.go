package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses url and verifies the server answers a PING. A bare
// host:port is accepted as well as a redis:// URL.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// RedisCache stores JSON-encoded values in Redis so several service
// instances share computed reports. Purge bumps a generation counter that is
// part of every key; old generations simply expire.
type RedisCache[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache[T any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: slog.Default().With("component", "cache", "backend", "redis"),
	}
}

func (c *RedisCache[T]) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisCache[T]) generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func (c *RedisCache[T]) versionedKey(gen uint64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key)
}

func (c *RedisCache[T]) key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return c.versionedKey(gen, key), nil
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	k, err := c.key(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "Redis generation lookup failed", "key", key, "error", err)
		return zero, false
	}
	raw, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Redis get failed", "key", key, "error", err)
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.WarnContext(ctx, "Discarding undecodable cache entry", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Redis generation lookup failed", "key", key, "error", err)
		return
	}
	c.SetVersioned(ctx, gen, key, data)
}

func (c *RedisCache[T]) Version(ctx context.Context) (uint64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Redis generation lookup failed", "error", err)
		return 0, false
	}
	return gen, true
}

// SetVersioned writes under the generation the caller read. After a Purge
// readers look up the next generation, so a late write is never served.
func (c *RedisCache[T]) SetVersioned(ctx context.Context, version uint64, key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.WarnContext(ctx, "Cache value not encodable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.versionedKey(version, key), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis set failed", "key", key, "error", err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	k, err := c.key(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "Redis generation lookup failed", "key", key, "error", err)
		return
	}
	if err := c.client.Del(ctx, k).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis delete failed", "key", key, "error", err)
	}
}

func (c *RedisCache[T]) Purge(ctx context.Context) {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis purge failed", "error", err)
	}
}
