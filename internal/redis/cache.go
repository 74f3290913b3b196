// Package redis keeps the entry list in Redis so several processes share
// one warm copy.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"paytrack/internal/core"
	"paytrack/internal/log"
)

const (
	// DefaultTTL applies when the caller passes a non-positive TTL.
	DefaultTTL = 30 * time.Second

	// KeyPrefix is the prefix for every paytrack key
	KeyPrefix = "paytrack:"

	entryListKey = KeyPrefix + "entries"
)

// Cache is a Redis-backed entry list cache. It satisfies cached.ListCache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// cachedList is the JSON document stored under entryListKey.
type cachedList struct {
	Entries  []core.Entry `json:"entries"`
	CachedAt time.Time    `json:"cached_at"`
}

// NewClient parses a redis:// or rediss:// URL and verifies the server answers.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(log.FieldComponent, log.ComponentCache),
	}
}

// Get returns the cached list. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context) ([]core.Entry, bool, error) {
	val, err := c.client.Get(ctx, entryListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "key", entryListKey)
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("cache error", log.FieldOperation, "get", log.FieldError, err)
		return nil, false, fmt.Errorf("failed to get cached entries: %w", err)
	}

	entries, err := decodeList(val)
	if err != nil {
		return nil, false, err
	}

	c.logger.Debug("cache hit", "key", entryListKey, "count", len(entries))
	return entries, true, nil
}

func (c *Cache) Set(ctx context.Context, entries []core.Entry) error {
	data, err := encodeList(entries, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, entryListKey, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache error", log.FieldOperation, "set", log.FieldError, err)
		return fmt.Errorf("failed to set cached entries: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, entryListKey).Err(); err != nil {
		c.logger.Error("cache error", log.FieldOperation, "invalidate", log.FieldError, err)
		return fmt.Errorf("failed to invalidate cached entries: %w", err)
	}
	return nil
}

func encodeList(entries []core.Entry, at time.Time) ([]byte, error) {
	if entries == nil {
		entries = []core.Entry{}
	}
	data, err := json.Marshal(cachedList{Entries: entries, CachedAt: at})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}
	return data, nil
}

func decodeList(data []byte) ([]core.Entry, error) {
	var cached cachedList
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached entries: %w", err)
	}
	if cached.Entries == nil {
		cached.Entries = []core.Entry{}
	}
	return cached.Entries, nil
}
