package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jimikki-app/backend/internal/logging"
)

const cacheKeyPrefix = "jimikki:user_data:"

// CachedStore fronts another Store with a Redis cache for user documents.
// Saves write through; a read only fills a missing key, so a slow read can
// never replace a newer save. Redis failures never fail a request; reads fall
// through to the wrapped store.
type CachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
	log logging.Logger
}

// NewRedisClient parses a redis:// URL, falling back to a bare host:port.
func NewRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

// NewCachedStore wraps next with a cache of ttl.
func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, log logging.Logger) *CachedStore {
	return &CachedStore{Store: next, rdb: rdb, ttl: ttl, log: log.With("component", "store")}
}

func cacheKey(email string) string {
	return cacheKeyPrefix + email
}

func (c *CachedStore) GetUserData(ctx context.Context, email string) (string, error) {
	cached, err := c.rdb.Get(ctx, cacheKey(email)).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn(ctx, "cache read failed", "error", err)
	}

	data, err := c.Store.GetUserData(ctx, email)
	if err != nil {
		return "", err
	}
	if err := c.rdb.SetNX(ctx, cacheKey(email), data, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache fill failed", "error", err)
	}
	return data, nil
}

func (c *CachedStore) PutUserData(ctx context.Context, email, data string) error {
	if err := c.Store.PutUserData(ctx, email, data); err != nil {
		return err
	}
	if err := c.rdb.SetEx(ctx, cacheKey(email), data, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache write failed, invalidating", "error", err)
		if err := c.rdb.Del(ctx, cacheKey(email)).Err(); err != nil {
			c.log.Warn(ctx, "cache invalidation failed", "error", err)
		}
	}
	return nil
}

func (c *CachedStore) Close() error {
	return errors.Join(c.Store.Close(), c.rdb.Close())
}
