// Package cache provides caching implementations for quote source interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/feature/quotes/usecase"
)

// CachingQuoteSource decorates a BatchQuoteSource with a per-code Redis cache.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying source.
type CachingQuoteSource struct {
	inner     usecase.BatchQuoteSource
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// CachingQuoteSourceがBatchQuoteSourceを実装していることをコンパイル時に検証します。
var _ usecase.BatchQuoteSource = (*CachingQuoteSource)(nil)

// NewCachingQuoteSource decorates a BatchQuoteSource with Redis caching.
// If ttl is 0, it defaults to 30 seconds. If namespace is empty, it uses "quotes".
func NewCachingQuoteSource(rdb *redis.Client, ttl time.Duration, inner usecase.BatchQuoteSource, namespace string) *CachingQuoteSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &CachingQuoteSource{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Quotes returns cached quotes and asks the inner source only for the codes that missed.
func (c *CachingQuoteSource) Quotes(ctx context.Context, codes []string) ([]entity.Quote, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil || len(codes) == 0 {
		return c.inner.Quotes(ctx, codes)
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = c.cacheKey(code)
	}

	// 1) Check cache
	hits := make([]entity.Quote, 0, len(codes))
	missing := codes
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Warn("quote cache read failed", "error", err)
	} else {
		missing = make([]string, 0, len(codes))
		var corrupted []string
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, codes[i])
				continue
			}
			var q entity.Quote
			if err := json.Unmarshal([]byte(s), &q); err != nil {
				corrupted = append(corrupted, keys[i])
				missing = append(missing, codes[i])
				continue
			}
			hits = append(hits, q)
		}
		// Delete corrupted cache entries
		if len(corrupted) > 0 {
			_ = c.rdb.Del(ctx, corrupted...).Err()
		}
	}
	if len(missing) == 0 {
		return hits, nil
	}

	// 2) Fallback to the inner source
	fetched, err := c.inner.Quotes(ctx, missing)
	if err != nil {
		return hits, err
	}

	// 3) Store in cache (best effort)
	for _, q := range fetched {
		if b, err := json.Marshal(q); err == nil {
			_ = c.rdb.Set(ctx, c.cacheKey(q.Code), b, c.ttl).Err()
		}
	}
	return append(hits, fetched...), nil
}

// cacheKey generates a cache key for a single code.
func (c *CachingQuoteSource) cacheKey(code string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(code))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
