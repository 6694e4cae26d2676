package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	applogger "QuantPanel/pkg/logger"
)

// CachedLoader memoizes raw loaded closes in front of another PriceLoader.
// Derived series are never cached. Cache failures fall back to the wrapped
// loader.
type CachedLoader struct {
	next    domrepo.PriceLoader
	cache   BytesCache
	ttl     time.Duration
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewCachedLoader(next domrepo.PriceLoader, cache BytesCache, ttl time.Duration, metrics domrepo.Metrics) *CachedLoader {
	return &CachedLoader{next: next, cache: cache, ttl: ttl, metrics: metrics}
}

// SetLogger injects a structured logger.
func (c *CachedLoader) SetLogger(l *applogger.Logger) { c.l = l }

func (c *CachedLoader) Name() string { return c.next.Name() }

// Key builds prices:{source}:{symbol}:{tf}:{period|start_end}.
func (c *CachedLoader) Key(q domrepo.PriceQuery) string {
	return fmt.Sprintf("prices:%s:%s", c.next.Name(), q.Key())
}

func (c *CachedLoader) Load(ctx context.Context, q domrepo.PriceQuery) (models.PriceSeries, error) {
	key := c.Key(q)

	b, ok, err := c.cache.GetBytes(ctx, key)
	switch {
	case err != nil:
		c.fail("cache_get", key, err)
	case ok:
		var points []models.PricePoint
		if err := json.Unmarshal(b, &points); err == nil {
			if s, err := models.NewPriceSeries(q.Symbol, q.Timeframe, points); err == nil && s.Len() > 0 {
				c.record("hit")
				return s, nil
			}
		}
		c.fail("cache_decode", key, fmt.Errorf("corrupt cache entry"))
	default:
		c.record("miss")
	}

	series, err := c.next.Load(ctx, q)
	if err != nil {
		return series, err
	}
	if b, err := json.Marshal(series.Points()); err == nil {
		if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
			c.fail("cache_set", key, err)
		}
	}
	return series, nil
}

func (c *CachedLoader) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordCache(result)
	}
}

func (c *CachedLoader) fail(kind, key string, err error) {
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
	if c.l != nil {
		c.l.Warn("price cache degraded", applogger.String("op", kind), applogger.String("key", key), applogger.Error(err))
	}
}

var _ domrepo.PriceLoader = (*CachedLoader)(nil)
