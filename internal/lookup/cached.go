package lookup

import (
	"context"
	"log/slog"
	"sync"

	"github.com/crimson-sun/orgtree/internal/metrics"
	"github.com/crimson-sun/orgtree/internal/model"
)

// Cached serves lookups from a Cache and falls through to the wrapped Lookup
// on a miss. Failed lookups are remembered for the lifetime of the Cached
// value only, so one run never asks upstream twice for the same customer.
// Cache errors are logged and treated as misses.
type Cached struct {
	inner   Lookup
	cache   Cache
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	failed map[string]error
}

// NewCached wraps inner with cache. A nil cache uses a MemoryCache.
func NewCached(inner Lookup, cache Cache, m *metrics.Metrics, logger *slog.Logger) *Cached {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		inner:   inner,
		cache:   cache,
		metrics: m,
		logger:  logger,
		failed:  make(map[string]error),
	}
}

// Lookup returns the cached answer for customerID or asks the wrapped Lookup.
func (c *Cached) Lookup(ctx context.Context, customerID string) (model.Ancestry, error) {
	c.mu.Lock()
	err, failed := c.failed[customerID]
	c.mu.Unlock()
	if failed {
		c.metrics.ObserveLookup(metrics.OutcomeCacheHit, 0)
		return model.Ancestry{}, err
	}

	a, ok, err := c.cache.Get(ctx, customerID)
	if err != nil {
		c.logger.Warn("lookup cache read failed", "customer_id", customerID, "error", err)
	} else if ok {
		c.metrics.ObserveLookup(metrics.OutcomeCacheHit, 0)
		return a, nil
	}

	a, err = c.inner.Lookup(ctx, customerID)
	if err != nil {
		// A cancelled context says nothing about the customer.
		if ctx.Err() == nil {
			c.mu.Lock()
			c.failed[customerID] = err
			c.mu.Unlock()
		}
		return model.Ancestry{}, err
	}
	if err := c.cache.Set(ctx, customerID, a); err != nil {
		c.logger.Warn("lookup cache write failed", "customer_id", customerID, "error", err)
	}
	return a, nil
}
