// Package catalog serves the selector value lists backing the search UI:
// localities, access nodes, node names and worklist queues. Database-backed
// lists are cached in Redis so repeated lookups do not hit the sources.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"provision-search/internal/common/database"
	commonerrors "provision-search/internal/common/errors"
	"provision-search/internal/common/logger"
	"provision-search/internal/common/metrics"
	"provision-search/internal/engine/compiler"
)

const (
	ordersTable    = "SERVICE_ORDERS"
	inventoryTable = "CIRCUIT_INVENTORY"

	keyLocalities  = "catalog:localities"
	keyAccessNodes = "catalog:access_nodes"
	keyNodes       = "catalog:nodes"
)

// ValueSource exposes the distinct-value lookup each backing database
// provides.
type ValueSource interface {
	DistinctValues(ctx context.Context, table, column string) ([]string, error)
}

// Catalog resolves selector value lists, caching database-backed ones.
type Catalog struct {
	orders    ValueSource
	inventory ValueSource
	cache     *database.RedisClient
	ttl       time.Duration
	log       logger.Logger
}

func New(orders, inventory ValueSource, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *Catalog {
	return &Catalog{
		orders:    orders,
		inventory: inventory,
		cache:     cache,
		ttl:       ttl,
		log:       log.WithFields(map[string]interface{}{"component": "catalog"}),
	}
}

// Localities returns the union of locality values across both sources.
func (c *Catalog) Localities(ctx context.Context) ([]string, error) {
	return c.cached(ctx, keyLocalities, func(ctx context.Context) ([]string, error) {
		fromOrders, err := c.orders.DistinctValues(ctx, ordersTable, "LOCALITY")
		if err != nil {
			return nil, fmt.Errorf("orders localities: %w", err)
		}
		fromInventory, err := c.inventory.DistinctValues(ctx, inventoryTable, "LOCALITY")
		if err != nil {
			return nil, fmt.Errorf("inventory localities: %w", err)
		}
		return mergeSorted(fromOrders, fromInventory), nil
	})
}

// AccessNodes returns the distinct access node names from the inventory
// source.
func (c *Catalog) AccessNodes(ctx context.Context) ([]string, error) {
	return c.cached(ctx, keyAccessNodes, func(ctx context.Context) ([]string, error) {
		return c.inventory.DistinctValues(ctx, inventoryTable, "ACCESS_NODE")
	})
}

// Nodes returns the distinct node names from the inventory source.
func (c *Catalog) Nodes(ctx context.Context) ([]string, error) {
	return c.cached(ctx, keyNodes, func(ctx context.Context) ([]string, error) {
		return c.inventory.DistinctValues(ctx, inventoryTable, "NODE")
	})
}

// Queues returns the fixed worklist queue names. The list is static, so it
// bypasses the cache.
func (c *Catalog) Queues() []string {
	queues := compiler.AvailableQueues()
	out := make([]string, len(queues))
	for i, q := range queues {
		out[i] = string(q)
	}
	return out
}

// cached wraps a loader with the read-through Redis cache. A cache outage
// degrades to a direct database lookup rather than failing the request.
func (c *Catalog) cached(ctx context.Context, key string, load func(ctx context.Context) ([]string, error)) ([]string, error) {
	if c.cache != nil {
		raw, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			var values []string
			if jerr := json.Unmarshal([]byte(raw), &values); jerr == nil {
				metrics.CatalogCacheHits.WithLabelValues(key).Inc()
				return values, nil
			}
			c.log.Warn("discarding unreadable catalog cache entry", map[string]interface{}{
				"key": key,
			})
		case err != redis.Nil:
			c.log.Warn("catalog cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		metrics.CatalogCacheMisses.WithLabelValues(key).Inc()
	}

	values, err := load(ctx)
	if err != nil {
		stdErr := commonerrors.NewCatalogLookupFailedError(key, err)
		c.log.Error("catalog lookup failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, stdErr
	}
	if values == nil {
		values = []string{}
	}

	if c.cache != nil {
		encoded, _ := json.Marshal(values)
		if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
			c.log.Warn("catalog cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return values, nil
}

// mergeSorted unions two value lists, dropping duplicates and sorting the
// result.
func mergeSorted(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}
