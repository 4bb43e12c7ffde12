// Package cache stores market comparables in Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/market"
)

const keyPrefix = "arb:comparables:"

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Redis implements market.Cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ market.Cache = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to the Redis server at redisURL and checks it responds.
func Dial(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "cache: ping redis")
	}

	return NewRedis(client, ttl), nil
}

// Get returns cached comparables. A miss returns ok=false and no error.
func (r *Redis) Get(ctx context.Context, key string) (*market.Comparables, bool, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: get %s", key)
	}

	var c market.Comparables
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, false, eris.Wrapf(err, "cache: decode %s", key)
	}
	return &c, true, nil
}

// Set stores comparables under key for the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, c *market.Comparables) error {
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "cache: encode comparables")
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err(); err != nil {
		return eris.Wrapf(err, "cache: set %s", key)
	}
	return nil
}

// Invalidate drops a cached entry.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return eris.Wrapf(err, "cache: delete %s", key)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
