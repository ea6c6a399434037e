package inventory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/pos-till/internal/basket"
)

const itemKeyPrefix = "till:item:"

// CachedCatalog serves item lookups from Redis before falling back to the
// underlying catalogue. Misses are stored with the configured TTL.
type CachedCatalog struct {
	next   Catalog
	client *redis.Client
	ttl    time.Duration
}

// NewCachedCatalog wraps next. A nil client or non-positive TTL disables caching.
func NewCachedCatalog(next Catalog, client *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, client: client, ttl: ttl}
}

// GetItem implements Catalog. Cache failures degrade to a direct lookup.
func (c *CachedCatalog) GetItem(ctx context.Context, id string) (basket.Item, error) {
	id = strings.TrimSpace(id)
	if item, ok := c.get(ctx, id); ok {
		return item, nil
	}
	item, err := c.next.GetItem(ctx, id)
	if err != nil {
		return basket.Item{}, err
	}
	c.set(ctx, id, item)
	return item, nil
}

func (c *CachedCatalog) enabled() bool {
	return c.client != nil && c.ttl > 0
}

func (c *CachedCatalog) get(ctx context.Context, id string) (basket.Item, bool) {
	if !c.enabled() || id == "" {
		return basket.Item{}, false
	}
	// redis.Nil and transport errors both fall through to the catalogue
	data, err := c.client.Get(ctx, itemKeyPrefix+id).Bytes()
	if err != nil {
		return basket.Item{}, false
	}
	var item basket.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return basket.Item{}, false
	}
	return item, true
}

func (c *CachedCatalog) set(ctx context.Context, id string, item basket.Item) {
	if !c.enabled() || id == "" {
		return
	}
	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, itemKeyPrefix+id, data, c.ttl).Err()
}
