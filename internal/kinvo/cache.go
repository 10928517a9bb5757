package kinvo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache holds decoded Kinvo responses for a limited time. It is owned by the
// caller and handed to the client, so tests and the CLI can run without one.
type Cache struct {
	store *cache.Cache
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: cache.New(ttl, 2*ttl)}
}

// CacheKey builds the cache key of a call from the method name and its arguments.
func CacheKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

type skipCacheKey struct{}

// WithoutCache marks ctx so calls made with it go to Kinvo even when a cached
// response exists. The fresh response still replaces the cached one.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipCacheKey{}, true)
}

func cacheSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipCacheKey{}).(bool)
	return skip
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.store.Get(key)
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.store.SetDefault(key, value)
}

// Flush drops every cached response.
func (c *Cache) Flush() {
	if c == nil {
		return
	}
	c.store.Flush()
}

// Len reports the number of cached entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}
