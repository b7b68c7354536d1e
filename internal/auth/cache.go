package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookkinder/internal/config"
)

const (
	tokenCacheKeyPrefix  = "bookkinder:token:"
	defaultTokenCacheTTL = 10 * time.Minute
)

// CachedToken is what the cache remembers about a validated token hash.
type CachedToken struct {
	TokenID   uint       `json:"token_id"`
	UserID    uint       `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TokenCache short-circuits the token table lookup on hot paths.
type TokenCache interface {
	Get(ctx context.Context, hash string) (*CachedToken, error)
	Put(ctx context.Context, hash string, token CachedToken) error
	Forget(ctx context.Context, hashes ...string) error
}

// ErrCacheMiss is returned by TokenCache.Get when the hash is unknown.
var ErrCacheMiss = errors.New("token not cached")

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisTokenCache stores CachedToken values as JSON with a bounded TTL.
type RedisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenCache(client *redis.Client, ttl time.Duration) *RedisTokenCache {
	if ttl <= 0 {
		ttl = defaultTokenCacheTTL
	}
	return &RedisTokenCache{client: client, ttl: ttl}
}

func (c *RedisTokenCache) Get(ctx context.Context, hash string) (*CachedToken, error) {
	raw, err := c.client.Get(ctx, tokenCacheKeyPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var token CachedToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &token, nil
}

// Put caches token until its own expiry or the cache TTL, whichever is first.
func (c *RedisTokenCache) Put(ctx context.Context, hash string, token CachedToken) error {
	ttl := c.ttl
	if token.ExpiresAt != nil {
		remaining := time.Until(*token.ExpiresAt)
		if remaining <= 0 {
			return nil
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode cached token: %w", err)
	}
	return c.client.Set(ctx, tokenCacheKeyPrefix+hash, raw, ttl).Err()
}

func (c *RedisTokenCache) Forget(ctx context.Context, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}
	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = tokenCacheKeyPrefix + h
	}
	return c.client.Del(ctx, keys...).Err()
}
