// Package cache provides a two-tier query result cache: a shared Redis tier
// and an in-process LRU fallback used when Redis is unavailable. Concurrent
// identical queries are collapsed through singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/coursehound/coursehound/internal/searcher"
	"github.com/coursehound/coursehound/pkg/config"
	pkgredis "github.com/coursehound/coursehound/pkg/redis"
)

const keyPrefix = "search:"

type QueryCache struct {
	client *pkgredis.Client
	local  *lru.Cache[string, []byte]
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache. client may be nil, in which case only the
// in-process tier is used. localSize <= 0 disables the local tier.
func New(client *pkgredis.Client, cfg config.RedisConfig, localSize int) (*QueryCache, error) {
	c := &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
	if localSize > 0 {
		local, err := lru.New[string, []byte](localSize)
		if err != nil {
			return nil, fmt.Errorf("creating local cache: %w", err)
		}
		c.local = local
	}
	return c, nil
}

func (c *QueryCache) Get(ctx context.Context, req searcher.Request) (*searcher.Response, bool) {
	key := c.buildKey(req)
	data, ok := c.fetch(ctx, key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	var resp searcher.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	return &resp, true
}

func (c *QueryCache) Set(ctx context.Context, req searcher.Request, resp *searcher.Response) {
	key := c.buildKey(req)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	c.store(ctx, key, data)
}

// GetOrCompute returns the cached response for req or computes, caches, and
// returns a fresh one. The bool reports whether the response was a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req searcher.Request,
	computeFn func() (*searcher.Response, error),
) (*searcher.Response, bool, error) {
	if resp, ok := c.Get(ctx, req); ok {
		return resp, true, nil
	}
	key := c.buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, req); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*searcher.Response), false, nil
}

// Invalidate drops every cached response from both tiers. The indexer calls
// this after publishing rebuilt indices.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c.local != nil {
		c.local.Purge()
	}
	if c.client == nil {
		return nil
	}
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) fetch(ctx context.Context, key string) ([]byte, bool) {
	if c.client != nil {
		data, err := c.client.Get(ctx, key)
		if err == nil {
			return []byte(data), true
		}
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
	}
	if c.local != nil {
		return c.local.Get(key)
	}
	return nil, false
}

func (c *QueryCache) store(ctx context.Context, key string, data []byte) {
	if c.client != nil {
		if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
			c.logger.Error("cache set failed", "key", key, "error", err)
		}
	}
	if c.local != nil {
		c.local.Add(key, data)
	}
}

// buildKey derives a stable key from the canonical JSON encoding of the
// request. Requests differing in any parameter cache independently.
func (c *QueryCache) buildKey(req searcher.Request) string {
	raw, err := json.Marshal(req)
	if err != nil {
		raw = []byte(req.Query)
	}
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
