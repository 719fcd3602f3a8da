// Package cache memoises search results in two tiers: an in-process LRU and
// an optional shared Redis tier. Keys are namespaced by index generation, so
// results computed against older artifacts are never served.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/redis"
)

const keyPrefix = "lyricsearch:"

// Options configures a QueryCache.
type Options struct {
	// LocalSize is the LRU capacity; 0 disables the local tier.
	LocalSize int
	// TTL applies to the Redis tier.
	TTL        time.Duration
	Generation string
}

// QueryCache is safe for concurrent use.
type QueryCache struct {
	local      *lru.Cache[string, *executor.SearchResult]
	client     *pkgredis.Client
	ttl        time.Duration
	generation string
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// New creates a QueryCache. client and m may be nil.
func New(client *pkgredis.Client, opts Options, m *metrics.Metrics) (*QueryCache, error) {
	c := &QueryCache{
		client:     client,
		ttl:        opts.TTL,
		generation: opts.Generation,
		metrics:    m,
		logger:     slog.Default().With("component", "query-cache"),
	}
	if opts.LocalSize > 0 {
		local, err := lru.New[string, *executor.SearchResult](opts.LocalSize)
		if err != nil {
			return nil, fmt.Errorf("creating local cache: %w", err)
		}
		c.local = local
	}
	return c, nil
}

// Get looks req up in the local tier, then in Redis. A Redis hit is copied
// into the local tier.
func (c *QueryCache) Get(ctx context.Context, req executor.Request) (*executor.SearchResult, bool) {
	key := c.buildKey(req)
	if c.local != nil {
		if result, ok := c.local.Get(key); ok {
			c.hit("local")
			return result, true
		}
	}
	if c.client != nil {
		data, err := c.client.Get(ctx, key)
		switch {
		case err == nil:
			var result executor.SearchResult
			if err := json.Unmarshal(data, &result); err != nil {
				c.logger.Error("cache unmarshal failed", "key", key, "error", err)
				break
			}
			if c.local != nil {
				c.local.Add(key, &result)
			}
			c.hit("redis")
			return &result, true
		case !pkgredis.IsNilError(err):
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	return nil, false
}

// Set stores result in every enabled tier.
func (c *QueryCache) Set(ctx context.Context, req executor.Request, result *executor.SearchResult) {
	key := c.buildKey(req)
	if c.local != nil {
		c.local.Add(key, result)
	}
	if c.client == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached result or runs computeFn once per key, even
// when many identical requests arrive together. The boolean reports a cache
// hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.Request,
	computeFn func(context.Context) (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	key := c.buildKey(req)
	val, err, _ := c.group.Do(key, func() (any, error) {
		if c.local != nil {
			if result, ok := c.local.Get(key); ok {
				return result, nil
			}
		}
		result, err := computeFn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate empties the local tier and deletes every lyricsearch key from
// Redis, whatever its generation. It returns the number of Redis keys
// deleted.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	if c.local != nil {
		c.local.Purge()
	}
	var deleted int64
	if c.client != nil {
		var err error
		deleted, err = c.client.FlushByPattern(ctx, keyPrefix+"*")
		if err != nil {
			return deleted, fmt.Errorf("invalidating cache: %w", err)
		}
	}
	c.logger.Info("cache invalidated", "redis_keys_deleted", deleted)
	return deleted, nil
}

// Stats returns hit and miss counts since creation.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len is the number of entries in the local tier.
func (c *QueryCache) Len() int {
	if c.local == nil {
		return 0
	}
	return c.local.Len()
}

func (c *QueryCache) hit(tier string) {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *QueryCache) buildKey(req executor.Request) string {
	raw := fmt.Sprintf("mode=%s;limit=%d;terms=%s", req.Mode, req.Limit, normalizeQuery(req.Query))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.generation, hash[:16])
}

// normalizeQuery reduces a query to what scoring depends on: its terms as a
// multiset. Cosine similarity ignores term order, case and punctuation.
func normalizeQuery(query string) string {
	terms := tokenizer.Tokenize(query)
	slices.Sort(terms)
	return strings.Join(terms, " ")
}
