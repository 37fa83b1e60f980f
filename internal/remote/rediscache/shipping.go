package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/internal/remote"
)

const methodsKey = "shipping:methods"

// ShippingMethodCache is a read-through Redis cache in front of a
// remote.ShippingMethodStore. Shipping methods change rarely, so a short TTL
// keeps the checkout page off the database without serving stale prices for
// long. Cache failures degrade to the backing store.
type ShippingMethodCache struct {
	client *redis.Client
	next   remote.ShippingMethodStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewShippingMethodCache creates a cache wrapping the given store.
func NewShippingMethodCache(client *redis.Client, next remote.ShippingMethodStore, ttl time.Duration, logger *slog.Logger) *ShippingMethodCache {
	return &ShippingMethodCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

// ListShippingMethods returns the cached method list, falling back to the
// backing store on a miss and repopulating the cache.
func (c *ShippingMethodCache) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	data, err := c.client.Get(ctx, methodsKey).Bytes()
	if err == nil {
		var methods []domain.ShippingMethod
		if jsonErr := json.Unmarshal(data, &methods); jsonErr == nil {
			return methods, nil
		}
		c.logger.Warn("corrupt shipping methods cache entry, refetching",
			slog.String("key", methodsKey))
	} else if err != redis.Nil {
		c.logger.Warn("shipping methods cache read failed",
			slog.String("error", err.Error()))
	}

	methods, err := c.next.ListShippingMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shipping methods: %w", err)
	}

	if data, err := json.Marshal(methods); err == nil {
		if err := c.client.Set(ctx, methodsKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("shipping methods cache write failed",
				slog.String("error", err.Error()))
		}
	}

	return methods, nil
}

// Invalidate drops the cached method list.
func (c *ShippingMethodCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, methodsKey).Err(); err != nil {
		return fmt.Errorf("redis del shipping methods: %w", err)
	}
	return nil
}
