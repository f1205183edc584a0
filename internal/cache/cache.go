/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-backed cache for the station settings
// row. The station timezone is consulted on every recurrence, split, and
// deletion computation, so avoiding a settings query per conversion is
// worthwhile. The cache degrades gracefully: when Redis is unreachable
// every lookup is a miss and callers fall through to the database.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keySettings        = "huginn:cache:station_settings"
	defaultSettingsTTL = 5 * time.Minute
)

// CachedSettings mirrors the station settings fields consumers need.
type CachedSettings struct {
	StationName string `json:"station_name"`
	Timezone    string `json:"timezone"`
	StreamURL   string `json:"stream_url"`
}

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SettingsTTL   time.Duration
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	ttl    time.Duration

	mu       sync.RWMutex
	disabled bool
}

// New creates a cache instance. A nil *Cache is safe to use: all
// operations are misses/no-ops, so callers never need nil checks.
func New(cfg Config, logger zerolog.Logger) *Cache {
	ttl := cfg.SettingsTTL
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}

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

	c := &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		ttl:    ttl,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Redis unavailable, settings cache disabled")
		c.disabled = true
		return c
	}

	c.logger.Info().Str("addr", cfg.RedisAddr).Msg("settings cache initialized")
	return c
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) available() bool {
	if c == nil || c.client == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}
	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")
	c.mu.Lock()
	c.disabled = true
	c.mu.Unlock()
	c.logger.Warn().Msg("disabling settings cache due to Redis error")
}

// GetSettings returns the cached station settings, if present.
func (c *Cache) GetSettings(ctx context.Context) (*CachedSettings, bool) {
	if !c.available() {
		return nil, false
	}

	data, err := c.client.Get(ctx, keySettings).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.handleError(err, "get_settings")
		return nil, false
	}

	var settings CachedSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, false
	}
	return &settings, true
}

// SetSettings stores the station settings with TTL.
func (c *Cache) SetSettings(ctx context.Context, settings CachedSettings) {
	if !c.available() {
		return
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keySettings, data, c.ttl).Err(); err != nil {
		c.handleError(err, "set_settings")
	}
}

// InvalidateSettings drops the cached settings after an update.
func (c *Cache) InvalidateSettings(ctx context.Context) {
	if !c.available() {
		return
	}
	if err := c.client.Del(ctx, keySettings).Err(); err != nil {
		c.handleError(err, "invalidate_settings")
	}
}
