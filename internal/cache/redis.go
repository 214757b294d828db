package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores translations in Redis with an LRU tier in front to reduce
// Redis load. Redis failures degrade to the local tier; they never fail a
// translation.
type Redis struct {
	client    *redis.Client
	local     *LRU
	keyPrefix string
	ttl       time.Duration
	breaker   *breaker
	timeout   time.Duration
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	RedisURL  string
	KeyPrefix string        // Default: "linguaspark:tr:"
	TTL       time.Duration // Default: DefaultTTL
	LocalSize int           // Default: DefaultSize
}

// NewRedis connects to cfg.RedisURL and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() // Best-effort cleanup on connection failure
		return nil, err
	}

	c, err := newRedis(client, cfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return c, nil
}

func newRedis(client *redis.Client, cfg RedisConfig) (*Redis, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "linguaspark:tr:"
	}

	local, err := NewLRU(cfg.LocalSize, ttl)
	if err != nil {
		return nil, err
	}

	return &Redis{
		client:    client,
		local:     local,
		keyPrefix: prefix,
		ttl:       ttl,
		breaker:   newBreaker(),
		timeout:   100 * time.Millisecond,
	}, nil
}

// Get checks the local tier first, then Redis.
func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	if value, ok := c.local.Get(ctx, key); ok {
		return value, true
	}

	if c.breaker.isOpen() {
		slog.Debug("circuit open, skipping Redis lookup", slog.String("component", "cache"))
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	value, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.breaker.recordFailure()
			slog.Error("Redis GET failed", slog.String("component", "cache"), slog.String("error", err.Error()))
		}
		return "", false
	}
	c.breaker.recordSuccess()

	c.local.Set(ctx, key, value, c.ttl)
	return value, true
}

// Set writes both tiers. A Redis failure is logged and counted.
func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.local.Set(ctx, key, value, ttl)

	if c.breaker.isOpen() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		c.breaker.recordFailure()
		slog.Error("Redis SET failed", slog.String("component", "cache"), slog.String("error", err.Error()))
		return
	}
	c.breaker.recordSuccess()
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	_ = c.local.Close()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// HealthCheck verifies Redis connectivity.
func (c *Redis) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
