package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second

	// DefaultDirectoryTTL is how long a cached directory snapshot stays valid.
	DefaultDirectoryTTL = 5 * time.Minute
)

// NewRedisClient returns a configured go-redis client and validates the
// connection with PING.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("store: redis addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}

	return client, nil
}

// cacheClient is the part of *redis.Client the directory cache needs.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedDirectory serves the meter directory from Redis and falls back to the
// wrapped directory on a miss. Redis failures are logged and never fail the
// lookup.
type CachedDirectory struct {
	next   MeterDirectory
	client cacheClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory wraps next with a Redis cache keyed per tenant.
func NewCachedDirectory(next MeterDirectory, client cacheClient, tenantID string, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultDirectoryTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{
		next:   next,
		client: client,
		key:    fmt.Sprintf("meterimport:%s:meters", tenantID),
		ttl:    ttl,
		logger: logger,
	}
}

// Meters returns the cached directory, loading and caching it on a miss.
func (c *CachedDirectory) Meters(ctx context.Context) ([]types.Meter, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var meters []types.Meter
		jsonErr := json.Unmarshal(raw, &meters)
		if jsonErr == nil {
			return meters, nil
		}
		c.logger.Warn("discarding unreadable meter cache", zap.String("key", c.key), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("meter cache unavailable", zap.String("key", c.key), zap.Error(err))
	}

	meters, err := c.next.Meters(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(meters)
	if err != nil {
		return meters, nil
	}
	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("meter cache write failed", zap.String("key", c.key), zap.Error(err))
	}
	return meters, nil
}

// Invalidate drops the cached snapshot.
func (c *CachedDirectory) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
