package order

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/platform/cache"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
)

// Cache holds fully populated orders by id. Failures degrade to misses.
type Cache interface {
	Get(ctx context.Context, id string) (*Order, bool)
	// Put stores o unless the cache already holds a later revision of it,
	// ordered by UpdatedAt. A reader that loaded the order before a
	// concurrent status change therefore cannot overwrite the newer copy.
	Put(ctx context.Context, o *Order)
}

// revision orders cached copies of one order. Stored timestamps have
// microsecond precision.
func revision(o *Order) int64 { return o.UpdatedAt.UnixMicro() }

type redisCache struct {
	store  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache stores orders as JSON in store for ttl.
func NewCache(store cache.Cache, ttl time.Duration, logger *zap.Logger) Cache {
	return &redisCache{store: store, ttl: ttl, logger: logger}
}

func (c *redisCache) key(id string) string { return c.store.GenerateKey("order", id) }

func (c *redisCache) Get(ctx context.Context, id string) (*Order, bool) {
	raw, ok, err := c.store.Get(ctx, c.key(id))
	if err != nil {
		logging.FromContext(ctx, c.logger).Warn("order cache read failed", zap.String("order_id", id), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		c.evict(ctx, id)
		return nil, false
	}
	return &o, true
}

func (c *redisCache) Put(ctx context.Context, o *Order) {
	raw, err := json.Marshal(o)
	if err != nil {
		return
	}
	written, err := c.store.SetIfNewer(ctx, c.key(o.ID.String()), raw, revision(o), c.ttl)
	if err != nil {
		logging.FromContext(ctx, c.logger).Warn("order cache write failed", zap.String("order_id", o.ID.String()), zap.Error(err))
		return
	}
	if !written {
		logging.FromContext(ctx, c.logger).Debug("stale order not cached", zap.String("order_id", o.ID.String()))
	}
}

func (c *redisCache) evict(ctx context.Context, id string) {
	if err := c.store.Delete(ctx, c.key(id)); err != nil {
		logging.FromContext(ctx, c.logger).Warn("order cache eviction failed", zap.String("order_id", id), zap.Error(err))
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*Order, bool) { return nil, false }
func (noCache) Put(context.Context, *Order)                {}
