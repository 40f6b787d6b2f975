// Package cache provides Redis-backed response caching and the token
// revocation blocklist.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the cache expiry used when none is configured.
const DefaultTTL = time.Hour

// blocklistTTL bounds how long a revoked token id is remembered.
// Tokens are short-lived, so an hour covers the remaining validity.
const blocklistTTL = time.Hour

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache is the caching contract used by the HTTP layer.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error

	BlockToken(ctx context.Context, jti string) error
	TokenBlocked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Redis implements Cache on a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis using a redis:// URL.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Set stores value as JSON under key. A non-positive ttl uses the
// configured default.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// Get unmarshals the cached JSON into dest, or returns ErrMiss.
func (r *Redis) Get(ctx context.Context, key string, dest any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Invalidate removes a single key.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache key %s: %w", key, err)
	}
	return nil
}

// InvalidatePrefix removes every key under prefix using SCAN, so large
// keyspaces are walked without blocking the server.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate cache prefix %s: %w", prefix, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache prefix %s: %w", prefix, err)
	}
	return nil
}

// BlockToken adds a token id to the revocation blocklist.
func (r *Redis) BlockToken(ctx context.Context, jti string) error {
	if err := r.client.Set(ctx, blocklistKey(jti), "", blocklistTTL).Err(); err != nil {
		return fmt.Errorf("failed to block token: %w", err)
	}
	return nil
}

// TokenBlocked reports whether a token id has been revoked.
func (r *Redis) TokenBlocked(ctx context.Context, jti string) (bool, error) {
	_, err := r.client.Get(ctx, blocklistKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blocklist: %w", err)
	}
	return true, nil
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func blocklistKey(jti string) string {
	return "blocklist:" + jti
}

// AnalyticsKey builds the cache key for a user's analytics query.
// Key shape: analytics:<user>:<endpoint>:<param>:<param>...
func AnalyticsKey(userID uuid.UUID, endpoint string, params ...string) string {
	parts := append([]string{"analytics", userID.String(), endpoint}, params...)
	return strings.Join(parts, ":")
}

// AnalyticsPrefix is the invalidation prefix covering all of a user's
// cached analytics.
func AnalyticsPrefix(userID uuid.UUID) string {
	return "analytics:" + userID.String() + ":"
}
