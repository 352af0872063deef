package company

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const profileCacheKey = "company:profile"

// Cache keeps the serialized profile in Redis. Concurrent misses share one load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Fetch returns the cached profile or populates it with loader.
func (c *Cache) Fetch(ctx context.Context, loader func(context.Context) (Profile, error)) (Profile, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, profileCacheKey).Bytes()
	if err == nil {
		var p Profile
		if err := json.Unmarshal(payload, &p); err == nil {
			return p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return Profile{}, err
	}

	res := c.group.DoChan(profileCacheKey, func() (any, error) {
		p, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, profileCacheKey, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return p, nil
	})
	select {
	case <-ctx.Done():
		return Profile{}, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return Profile{}, r.Err
		}
		return r.Val.(Profile), nil
	}
}

// Invalidate drops the cached profile.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, profileCacheKey).Err()
}
