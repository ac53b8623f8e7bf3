package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-shelf-scanner/internal/logger"
)

// CachedClient wraps a Client with a Redis read-through cache. Spine scans of
// the same shelf repeat the same queries, so even a short TTL removes most of
// the catalogue round-trips.
//
// Cache failures degrade to direct queries; the cache is never on the error
// path of a lookup.
type CachedClient struct {
	inner Client
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedClient wraps inner with a cache backed by rdb. Entries expire
// after ttl.
func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration) *CachedClient {
	return &CachedClient{inner: inner, redis: rdb, ttl: ttl}
}

// Query implements Client.
func (c *CachedClient) Query(ctx context.Context, keywords string, max int) ([]Book, error) {
	return c.cached(ctx, fmt.Sprintf("catalogue:q:%d:%s", max, keywords), func() ([]Book, error) {
		return c.inner.Query(ctx, keywords, max)
	})
}

// QueryTitleAuthor implements Client.
func (c *CachedClient) QueryTitleAuthor(ctx context.Context, title, author string, max int) ([]Book, error) {
	return c.cached(ctx, fmt.Sprintf("catalogue:ta:%d:%s|%s", max, title, author), func() ([]Book, error) {
		return c.inner.QueryTitleAuthor(ctx, title, author, max)
	})
}

func (c *CachedClient) cached(ctx context.Context, key string, query func() ([]Book, error)) ([]Book, error) {
	payload, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var books []Book
		if err := json.Unmarshal(payload, &books); err == nil {
			return books, nil
		}
		logger.WithField("key", key).Warn("Discarding corrupt catalogue cache entry")
	} else if err != redis.Nil {
		logger.WithError(err).Warn("Catalogue cache read failed")
	}

	books, err := query()
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(books); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.WithError(err).Warn("Catalogue cache write failed")
		}
	}
	return books, nil
}
