package store

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// Cache is a read-through cache in front of a Store. Find results are cached
// per collection and id; Update and Delete evict the affected entry.
type Cache struct {
	next  Store
	cache *ristretto.Cache[string, Record]
}

// NewCache wraps s with a cache holding at most maxItems records.
func NewCache(s Store, maxItems int64) (*Cache, error) {
	if maxItems <= 0 {
		maxItems = 1 << 12
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, Record]{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create record cache")
	}
	return &Cache{next: s, cache: c}, nil
}

func cacheKey(collection, id string) string { return collection + "/" + id }

func (c *Cache) Find(ctx context.Context, collection, id string) (Record, error) {
	key := cacheKey(collection, id)
	if rec, ok := c.cache.Get(key); ok {
		return rec.Clone(), nil
	}
	rec, err := c.next.Find(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, rec.Clone(), 1)
	return rec, nil
}

func (c *Cache) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	return c.next.List(ctx, collection, filter)
}

func (c *Cache) Create(ctx context.Context, collection string, rec Record) (Record, error) {
	return c.next.Create(ctx, collection, rec)
}

func (c *Cache) Update(ctx context.Context, collection, id string, patch Record) (Record, error) {
	c.cache.Del(cacheKey(collection, id))
	return c.next.Update(ctx, collection, id, patch)
}

func (c *Cache) Delete(ctx context.Context, collection, id string) (string, error) {
	c.cache.Del(cacheKey(collection, id))
	return c.next.Delete(ctx, collection, id)
}

// Wait blocks until buffered cache writes are applied.
func (c *Cache) Wait() { c.cache.Wait() }

func (c *Cache) Close() error {
	c.cache.Close()
	return Close(c.next)
}
