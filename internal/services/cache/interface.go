package cache

import (
	"context"
	"time"
)

// Cache remembers keys for a limited time. Only presence is stored.
type Cache interface {
	// Has reports whether key was set and has not expired
	Has(ctx context.Context, key string) bool

	// Set remembers key for ttl
	Set(ctx context.Context, key string, ttl time.Duration)

	// Delete forgets key
	Delete(ctx context.Context, key string)
}

// CacheStats provides statistics about cache usage
type CacheStats struct {
	Hits       int64
	Misses     int64
	Sets       int64
	Evictions  int64
	Size       int64
	MaxEntries int64
}

// StatsProvider interface for caches that provide statistics
type StatsProvider interface {
	Stats() CacheStats
}
