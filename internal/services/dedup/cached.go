package dedup

import (
	"context"
	"time"

	"github.com/killallgit/vidsum/internal/services/cache"
)

// CachedRemote remembers remote hits so repeated monitor runs do not query
// the remote store again for videos it already holds. Misses are never
// cached since the remote may gain the record at any time.
type CachedRemote struct {
	remote RemoteStore
	hits   cache.Cache
	ttl    time.Duration
}

// NewCachedRemote wraps remote with a hit cache
func NewCachedRemote(remote RemoteStore, hits cache.Cache, ttl time.Duration) *CachedRemote {
	return &CachedRemote{remote: remote, hits: hits, ttl: ttl}
}

func (c *CachedRemote) Configured() bool {
	return c.remote.Configured()
}

// FindByURL answers from the cache when possible
func (c *CachedRemote) FindByURL(ctx context.Context, url string) (bool, error) {
	if c.hits.Has(ctx, url) {
		return true, nil
	}
	found, err := c.remote.FindByURL(ctx, url)
	if err != nil {
		return false, err
	}
	if found {
		c.hits.Set(ctx, url, c.ttl)
	}
	return found, nil
}
