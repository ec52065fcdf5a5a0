package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"saferide/internal/fare"
)

// Cache TTL constants
const (
	ParamsCacheTTL = 5 * time.Minute // pricing changes are rare and admin-driven
)

// Key names
const (
	paramsCacheKey    = "cache:pricing:params"
	gatewayTokenKey   = "cache:mpesa:token"
	tokenTTLSafetyGap = 60 * time.Second
)

// ParamsCache caches the pricing parameter snapshot in Redis. The whole
// snapshot lives under one key, so readers never observe a half-updated
// configuration.
type ParamsCache struct {
	client *redis.Client
}

// NewParamsCache creates a new ParamsCache.
func NewParamsCache(client *redis.Client) *ParamsCache {
	return &ParamsCache{client: client}
}

// Get retrieves the cached snapshot. Returns nil on a cache miss.
func (c *ParamsCache) Get(ctx context.Context) (*fare.Params, error) {
	data, err := c.client.Get(ctx, paramsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var params fare.Params
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Set stores a snapshot with the configured TTL.
func (c *ParamsCache) Set(ctx context.Context, params fare.Params, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ParamsCacheTTL
	}
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, paramsCacheKey, data, ttl).Err()
}

// Invalidate removes the snapshot; the next read refreshes from the store.
func (c *ParamsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, paramsCacheKey).Err()
}

// TokenCache caches the payment gateway's OAuth bearer token with an
// explicit TTL, replacing ambient mutable token state with a scoped
// resource that expires on its own.
type TokenCache struct {
	client *redis.Client
}

// NewTokenCache creates a new TokenCache.
func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

// Get retrieves the cached token. Returns "" on a cache miss.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	token, err := c.client.Get(ctx, gatewayTokenKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// Set stores the token, expiring slightly before the gateway does so a
// cached token is never presented stale.
func (c *TokenCache) Set(ctx context.Context, token string, expiresIn time.Duration) error {
	ttl := expiresIn - tokenTTLSafetyGap
	if ttl <= 0 {
		ttl = expiresIn
	}
	return c.client.Set(ctx, gatewayTokenKey, token, ttl).Err()
}
