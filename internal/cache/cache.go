/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based cache for rendered schedules keyed by the digest
// of the configuration that produced them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/friendsincode/guardrota/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultScheduleTTL is used when Config.ScheduleTTL is zero.
const DefaultScheduleTTL = 60 * time.Minute

// Key prefixes for Redis cache
const (
	KeyPrefix   = "guardrota:cache:"
	KeyWorkbook = KeyPrefix + "workbook:" // + digest
	KeyView     = KeyPrefix + "view:"     // + digest
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ScheduleTTL time.Duration

	// DisableOnError trips the breaker on the first Redis error.
	DisableOnError bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		ScheduleTTL:    DefaultScheduleTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback. A nil *Cache is valid and
// behaves as an always-missing cache.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool
}

// New creates a new cache instance. An unreachable Redis yields a disabled cache, not an
// error.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	if cfg.ScheduleTTL <= 0 {
		cfg.ScheduleTTL = DefaultScheduleTTL
	}
	logger = logger.With().Str("component", "cache").Logger()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		_ = client.Close()
		return &Cache{
			logger:   logger,
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger,
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

func (c *Cache) getBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.IsAvailable() {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		c.handleError(err, "get")
		telemetry.CacheRequestsTotal.WithLabelValues("error").Inc()
		return nil, false
	}
	telemetry.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return data, true
}

func (c *Cache) setBytes(ctx context.Context, key string, data []byte) error {
	if !c.IsAvailable() {
		return nil
	}
	if err := c.client.Set(ctx, key, data, c.config.ScheduleTTL).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}
	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// SCAN, not KEYS
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// GetWorkbook returns a cached XLSX workbook for the digest.
func (c *Cache) GetWorkbook(ctx context.Context, digest string) ([]byte, bool) {
	data, ok := c.getBytes(ctx, KeyWorkbook+digest)
	if ok {
		c.logger.Debug().Str("digest", digest).Int("bytes", len(data)).Msg("workbook cache hit")
	}
	return data, ok
}

// SetWorkbook caches a rendered workbook.
func (c *Cache) SetWorkbook(ctx context.Context, digest string, data []byte) error {
	return c.setBytes(ctx, KeyWorkbook+digest, data)
}

// GetView decodes a cached JSON schedule view into dest.
func (c *Cache) GetView(ctx context.Context, digest string, dest any) bool {
	data, ok := c.getBytes(ctx, KeyView+digest)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("digest", digest).Msg("failed to unmarshal cached view")
		return false
	}
	return true
}

// SetView caches a JSON schedule view.
func (c *Cache) SetView(ctx context.Context, digest string, view any) error {
	if !c.IsAvailable() {
		return nil
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.setBytes(ctx, KeyView+digest, data)
}

// InvalidateAll drops every cached schedule.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if !c.IsAvailable() {
		return nil
	}
	c.logger.Debug().Msg("invalidating schedule cache")
	return c.deletePattern(ctx, KeyPrefix+"*")
}
